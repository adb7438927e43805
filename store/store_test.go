package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/epochtools/actinorm"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// StoreTestSuite exercises epoch persistence against a temp database.
type StoreTestSuite struct {
	suite.Suite
	baseDir string
	dbPath  string
}

// SetupTest creates a temporary directory for each test.
func (s *StoreTestSuite) SetupTest() {
	baseDir, err := os.MkdirTemp("", "store-test-*")
	require.NoError(s.T(), err)
	s.baseDir = baseDir
	s.dbPath = filepath.Join(baseDir, "db", "epochs.db")
}

// TearDownTest cleans up the temporary directory.
func (s *StoreTestSuite) TearDownTest() {
	err := os.RemoveAll(s.baseDir)
	require.NoError(s.T(), err, "should be able to clean up temp dir")
}

// TestStoreSuite runs the entire Store test suite.
func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

// testSeries builds a three-slot series with the middle slot missing.
func testSeries() (*actinorm.EpochSeries, *actinorm.InferenceReport) {
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	epoch := 15 * time.Second
	series := &actinorm.EpochSeries{
		Start: start,
		End:   start.Add(2 * epoch),
		Epoch: epoch,
		Records: []actinorm.EpochRecord{
			{Timestamp: start, Value: 120},
			{Timestamp: start.Add(epoch), Missing: true},
			{Timestamp: start.Add(2 * epoch), Value: 80},
		},
	}
	report := &actinorm.InferenceReport{
		SourceFile:   "subjectA.csv",
		EpochSeconds: 15,
		Rows:         2,
		FilledGaps:   1,
		SeriesLength: 3,
	}
	return series, report
}

// queryCount reopens the database file read-only to verify what was persisted.
func (s *StoreTestSuite) queryCount(query string, args ...any) int {
	db, err := sql.Open("duckdb", s.dbPath+"?access_mode=READ_ONLY")
	require.NoError(s.T(), err)
	defer db.Close()
	var count int
	err = db.QueryRow(query, args...).Scan(&count)
	require.NoError(s.T(), err)
	return count
}

// TestAppendSeriesPersistsEpochRows verifies the per-slot rows and the file summary.
func (s *StoreTestSuite) TestAppendSeriesPersistsEpochRows() {
	s.T().Log("Goal: Verify a normalized series lands as one epoch row per slot plus a file summary.")
	st, err := Open(s.dbPath)
	require.NoError(s.T(), err)

	series, report := testSeries()
	ctx := context.Background()
	require.NoError(s.T(), st.AppendSeries(ctx, "subjectA", "run-1", series, report))

	epochs, err := st.EpochCount(ctx, "subjectA")
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(3), epochs)

	missing, err := st.MissingCount(ctx, "subjectA")
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(1), missing)

	files, err := st.FileCount(ctx)
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(1), files)

	require.NoError(s.T(), st.Close())

	// A missing slot must store NULL, never a zero that looks like rest.
	require.Equal(s.T(), 1, s.queryCount("SELECT COUNT(*) FROM epochs WHERE subject = ? AND value IS NULL", "subjectA"))
	require.Equal(s.T(), 0, s.queryCount("SELECT COUNT(*) FROM epochs WHERE subject = ? AND missing AND value = 0", "subjectA"))
}

// TestSubjectsAreCountedSeparately verifies per-subject query scoping.
func (s *StoreTestSuite) TestSubjectsAreCountedSeparately() {
	st, err := Open(s.dbPath)
	require.NoError(s.T(), err)
	defer st.Close()

	series, report := testSeries()
	ctx := context.Background()
	require.NoError(s.T(), st.AppendSeries(ctx, "subjectA", "run-1", series, report))
	require.NoError(s.T(), st.AppendSeries(ctx, "subjectB", "run-1", series, report))

	epochs, err := st.EpochCount(ctx, "subjectB")
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(3), epochs)

	files, err := st.FileCount(ctx)
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(2), files)
}

// TestReopenKeepsRows verifies the database survives a close/open cycle.
func (s *StoreTestSuite) TestReopenKeepsRows() {
	st, err := Open(s.dbPath)
	require.NoError(s.T(), err)

	series, report := testSeries()
	require.NoError(s.T(), st.AppendSeries(context.Background(), "subjectA", "run-1", series, report))
	require.NoError(s.T(), st.Close())

	st2, err := Open(s.dbPath)
	require.NoError(s.T(), err)
	defer st2.Close()

	epochs, err := st2.EpochCount(context.Background(), "subjectA")
	require.NoError(s.T(), err)
	require.Equal(s.T(), int64(3), epochs)
}

// TestClosedStoreRejectsWrites verifies post-Close behavior.
func (s *StoreTestSuite) TestClosedStoreRejectsWrites() {
	st, err := Open(s.dbPath)
	require.NoError(s.T(), err)
	require.NoError(s.T(), st.Close())
	require.NoError(s.T(), st.Close(), "closing twice is fine")

	series, report := testSeries()
	err = st.AppendSeries(context.Background(), "subjectA", "run-1", series, report)
	require.Error(s.T(), err)
	require.Equal(s.T(), "store is closed", err.Error())
}
