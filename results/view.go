package results

// PositionView is one row of a sheet: slot label, who spoke, and their score.
type PositionView struct {
	Name     string   `json:"name"`
	Position Position `json:"position"`
	Speaker  Speaker  `json:"speaker"`
	Score    Score    `json:"score"`
}

// SheetView is a single adjudicator's sheet laid out for display.
type SheetView struct {
	Adjudicator Adjudicator    `json:"adjudicator"`
	Affs        []PositionView `json:"aff"`
	Negs        []PositionView `json:"neg"`
	AffScore    Score          `json:"aff_score"`
	NegScore    Score          `json:"neg_score"`
	AffWin      bool           `json:"aff_win"`
	NegWin      bool           `json:"neg_win"`
}

func (s *Sheet) View() SheetView {
	w, ok := s.Winner()
	return SheetView{
		Adjudicator: s.adjudicator,
		Affs:        positionViews(s.Speaker, s.Score, Aff),
		Negs:        positionViews(s.Speaker, s.Score, Neg),
		AffScore:    s.Total(Aff),
		NegScore:    s.Total(Neg),
		AffWin:      ok && w == Aff,
		NegWin:      ok && w == Neg,
	}
}

// SheetViews lays out every scoring sheet in panel order.
func (b *BallotSet) SheetViews() []SheetView {
	views := make([]SheetView, len(b.sheets))
	for i, sheet := range b.sheets {
		views[i] = sheet.View()
	}
	return views
}

// SideResult is the majority decision for one side.
type SideResult struct {
	Team      Team           `json:"team"`
	Positions []PositionView `json:"positions"`
	Total     Score          `json:"total"`
	Margin    Score          `json:"margin"`
	Points    *int           `json:"points"`
	Win       bool           `json:"win"`
}

// Result is the full computed outcome of a ballot.
type Result struct {
	DebateID     int           `json:"debate_id"`
	SubmissionID int           `json:"submission_id,omitempty"`
	Confirmed    bool          `json:"confirmed"`
	Sheets       []SheetView   `json:"sheets"`
	Majority     []Adjudicator `json:"majority_adjudicators"`
	AffVotes     int           `json:"aff_votes"`
	NegVotes     int           `json:"neg_votes"`
	Aff          SideResult    `json:"aff"`
	Neg          SideResult    `json:"neg"`
	Winner       *Side         `json:"winner"`
}

func (b *BallotSet) Result() Result {
	res := Result{
		DebateID:     b.debate.ID,
		SubmissionID: b.SubmissionID,
		Confirmed:    b.confirmed,
		Sheets:       b.SheetViews(),
		Aff:          b.sideResult(Aff),
		Neg:          b.sideResult(Neg),
	}
	res.AffVotes, res.NegVotes = b.Votes()
	for _, sheet := range b.MajorityAdjudicators() {
		res.Majority = append(res.Majority, sheet.Adjudicator())
	}
	if w, ok := b.Winner(); ok {
		res.Winner = &w
	}
	return res
}

func (b *BallotSet) sideResult(side Side) SideResult {
	sr := SideResult{
		Team:      b.Team(side),
		Positions: positionViews(b.Speaker, b.AvgScore, side),
		Total:     b.Total(side),
		Margin:    b.Margin(side),
	}
	if points, ok := b.Points(side); ok {
		sr.Points = &points
		sr.Win = points == 1
	}
	return sr
}

func positionViews(speaker func(Side, Position) Speaker, score func(Side, Position) Score, side Side) []PositionView {
	views := make([]PositionView, 0, NumPositions)
	for _, pos := range Positions {
		views = append(views, PositionView{
			Name:     pos.Name(),
			Position: pos,
			Speaker:  speaker(side, pos),
			Score:    score(side, pos),
		})
	}
	return views
}
