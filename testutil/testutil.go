// Package testutil prepares a real Postgres database for repository and service tests.
package testutil

import (
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// TestDBURLEnv names the variable holding the test database connection string.
const TestDBURLEnv = "TEST_DATABASE_URL"

const schema = `
	DROP TABLE IF EXISTS team_scores CASCADE;
	DROP TABLE IF EXISTS speaker_scores CASCADE;
	DROP TABLE IF EXISTS speaker_scores_by_adj CASCADE;
	DROP TABLE IF EXISTS ballot_submissions CASCADE;
	DROP TABLE IF EXISTS debate_adjudicators CASCADE;
	DROP TABLE IF EXISTS debate_teams CASCADE;
	DROP TABLE IF EXISTS debates CASCADE;
	DROP TABLE IF EXISTS adjudicators CASCADE;
	DROP TABLE IF EXISTS speakers CASCADE;
	DROP TABLE IF EXISTS teams CASCADE;
	DROP TABLE IF EXISTS rounds CASCADE;
	DROP TABLE IF EXISTS tournaments CASCADE;

	CREATE TABLE tournaments (
		id SERIAL PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE rounds (
		id SERIAL PRIMARY KEY,
		tournament_id INT NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
		seq INT NOT NULL,
		abbreviation TEXT NOT NULL,
		UNIQUE (tournament_id, seq)
	);

	CREATE TABLE teams (
		id SERIAL PRIMARY KEY,
		tournament_id INT NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
		reference TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE speakers (
		id SERIAL PRIMARY KEY,
		team_id INT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
		name TEXT NOT NULL
	);

	CREATE TABLE adjudicators (
		id SERIAL PRIMARY KEY,
		tournament_id INT NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
		name TEXT NOT NULL
	);

	CREATE TABLE debates (
		id SERIAL PRIMARY KEY,
		round_id INT NOT NULL REFERENCES rounds(id) ON DELETE CASCADE,
		venue TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE debate_teams (
		id SERIAL PRIMARY KEY,
		debate_id INT NOT NULL REFERENCES debates(id) ON DELETE CASCADE,
		team_id INT NOT NULL REFERENCES teams(id),
		position TEXT NOT NULL CHECK (position IN ('aff', 'neg')),
		UNIQUE (debate_id, position),
		UNIQUE (debate_id, team_id)
	);

	CREATE TABLE debate_adjudicators (
		id SERIAL PRIMARY KEY,
		debate_id INT NOT NULL REFERENCES debates(id) ON DELETE CASCADE,
		adjudicator_id INT NOT NULL REFERENCES adjudicators(id),
		type TEXT NOT NULL CHECK (type IN ('chair', 'panel', 'trainee')),
		UNIQUE (debate_id, adjudicator_id)
	);

	CREATE TABLE ballot_submissions (
		id SERIAL PRIMARY KEY,
		debate_id INT NOT NULL REFERENCES debates(id) ON DELETE CASCADE,
		version INT NOT NULL,
		submitter_type TEXT NOT NULL CHECK (submitter_type IN ('tabroom', 'public')),
		confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		confirmed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT ballot_submissions_debate_id_version_key UNIQUE (debate_id, version)
	);

	CREATE UNIQUE INDEX ballot_submissions_one_confirmed ON ballot_submissions(debate_id) WHERE confirmed;

	CREATE TABLE speaker_scores_by_adj (
		ballot_submission_id INT NOT NULL REFERENCES ballot_submissions(id) ON DELETE CASCADE,
		debate_adjudicator_id INT NOT NULL REFERENCES debate_adjudicators(id),
		debate_team_id INT NOT NULL REFERENCES debate_teams(id),
		position INT NOT NULL CHECK (position BETWEEN 1 AND 4),
		score DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (ballot_submission_id, debate_adjudicator_id, debate_team_id, position)
	);

	CREATE TABLE speaker_scores (
		ballot_submission_id INT NOT NULL REFERENCES ballot_submissions(id) ON DELETE CASCADE,
		debate_team_id INT NOT NULL REFERENCES debate_teams(id),
		speaker_id INT NOT NULL REFERENCES speakers(id),
		position INT NOT NULL CHECK (position BETWEEN 1 AND 4),
		score DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (ballot_submission_id, debate_team_id, position)
	);

	CREATE TABLE team_scores (
		ballot_submission_id INT NOT NULL REFERENCES ballot_submissions(id) ON DELETE CASCADE,
		debate_team_id INT NOT NULL REFERENCES debate_teams(id),
		score DOUBLE PRECISION,
		margin DOUBLE PRECISION,
		points INT,
		win BOOLEAN,
		PRIMARY KEY (ballot_submission_id, debate_team_id)
	);
`

// SetupTestDB connects to TEST_DATABASE_URL and recreates the schema.
// The test is skipped when the variable is unset.
func SetupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	url := os.Getenv(TestDBURLEnv)
	if url == "" {
		t.Skipf("%s not set, skipping database test", TestDBURLEnv)
	}

	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

// Fixture holds the ids of a seeded debate: one round, two teams of three
// speakers, and a panel of chair, panelist and trainee.
type Fixture struct {
	TournamentID  int
	RoundID       int
	DebateID      int
	AffTeamID     int
	NegTeamID     int
	AffSpeakerIDs [3]int
	NegSpeakerIDs [3]int
	AffDebateTeam int
	NegDebateTeam int
	// Adjudicator ids in panel order: chair, panelist, panelist, trainee.
	AdjudicatorIDs [4]int
	// debate_adjudicators ids, same order as AdjudicatorIDs.
	DebateAdjIDs [4]int
}

// SeedDebate inserts a fully allocated debate.
func SeedDebate(t *testing.T, db *sqlx.DB) Fixture {
	t.Helper()

	var f Fixture
	mustGet := func(dst *int, query string, args ...interface{}) {
		t.Helper()
		if err := db.QueryRowx(query, args...).Scan(dst); err != nil {
			t.Fatalf("Failed to seed fixture (%s): %v", query, err)
		}
	}

	mustGet(&f.TournamentID, `INSERT INTO tournaments (slug, name) VALUES ('wudc', 'Worlds') RETURNING id`)
	mustGet(&f.RoundID, `INSERT INTO rounds (tournament_id, seq, abbreviation) VALUES ($1, 1, 'R1') RETURNING id`, f.TournamentID)
	mustGet(&f.AffTeamID, `INSERT INTO teams (tournament_id, reference) VALUES ($1, 'Alpha') RETURNING id`, f.TournamentID)
	mustGet(&f.NegTeamID, `INSERT INTO teams (tournament_id, reference) VALUES ($1, 'Bravo') RETURNING id`, f.TournamentID)
	for i := range f.AffSpeakerIDs {
		mustGet(&f.AffSpeakerIDs[i], `INSERT INTO speakers (team_id, name) VALUES ($1, $2) RETURNING id`, f.AffTeamID, "Alpha "+string(rune('A'+i)))
		mustGet(&f.NegSpeakerIDs[i], `INSERT INTO speakers (team_id, name) VALUES ($1, $2) RETURNING id`, f.NegTeamID, "Bravo "+string(rune('A'+i)))
	}

	mustGet(&f.DebateID, `INSERT INTO debates (round_id, venue) VALUES ($1, 'Room 1') RETURNING id`, f.RoundID)
	mustGet(&f.AffDebateTeam, `INSERT INTO debate_teams (debate_id, team_id, position) VALUES ($1, $2, 'aff') RETURNING id`, f.DebateID, f.AffTeamID)
	mustGet(&f.NegDebateTeam, `INSERT INTO debate_teams (debate_id, team_id, position) VALUES ($1, $2, 'neg') RETURNING id`, f.DebateID, f.NegTeamID)

	types := [4]string{"chair", "panel", "panel", "trainee"}
	for i, typ := range types {
		mustGet(&f.AdjudicatorIDs[i], `INSERT INTO adjudicators (tournament_id, name) VALUES ($1, $2) RETURNING id`, f.TournamentID, "Adj "+string(rune('A'+i)))
		mustGet(&f.DebateAdjIDs[i], `INSERT INTO debate_adjudicators (debate_id, adjudicator_id, type) VALUES ($1, $2, $3) RETURNING id`, f.DebateID, f.AdjudicatorIDs[i], typ)
	}
	return f
}
