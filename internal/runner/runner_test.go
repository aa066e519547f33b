package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/q3a-report/internal/storage"
	"github.com/jwebster45206/q3a-report/pkg/causeofdeath"
	"github.com/jwebster45206/q3a-report/pkg/game"
	"github.com/jwebster45206/q3a-report/pkg/grammar"
	"github.com/jwebster45206/q3a-report/pkg/logsource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoGames = `  0:00 ------------------------------------------------------------
  0:00 InitGame: \sv_floodProtect\1\sv_maxPing\0
 15:00 Exit: Timelimit hit.
 20:34 ClientConnect: 2
 20:34 ClientUserinfoChanged: 2 n\Isgalamido\t\0
 20:37 ClientBegin: 2
 20:54 Kill: 1022 2 22: <world> killed Isgalamido by MOD_TRIGGER_HURT
 21:07 Kill: 1022 2 22: <world> killed Isgalamido by MOD_TRIGGER_HURT
 21:42 Kill: 3 2 10: Mocinha killed Isgalamido by MOD_RAILGUN
 22:06 Kill: 2 3 7: Isgalamido killed Mocinha by MOD_ROCKET_SPLASH
 22:40 score: 20  ping: 4  client: 2 Isgalamido
 23:00 ShutdownGame:

 23:00 ------------------------------------------------------------
  0:00 InitGame: \sv_floodProtect\1
  1:47 ShutdownGame:
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func source(s string) LineSource {
	return logsource.NewReader(strings.NewReader(s))
}

func decodeReports(t *testing.T, out *bytes.Buffer) []*game.Report {
	t.Helper()
	var reports []*game.Report
	dec := json.NewDecoder(out)
	for dec.More() {
		var r game.Report
		require.NoError(t, dec.Decode(&r))
		reports = append(reports, &r)
	}
	return reports
}

func TestRun_TwoGames(t *testing.T) {
	var out bytes.Buffer
	r := New(Options{Out: &out, Logger: testLogger()})

	sum, err := r.Run(context.Background(), source(twoGames))
	require.NoError(t, err)

	assert.Equal(t, Summary{LinesRead: 16, LinesFailed: 0, Reports: 2}, sum)
	assert.True(t, strings.HasPrefix(out.String(), "{\n\t\"game0\": {\n\t\t\"total_kills\": 4,"), out.String())

	reports := decodeReports(t, &out)
	require.Len(t, reports, 2)

	first := reports[0]
	assert.Equal(t, 0, first.Game)
	assert.Equal(t, uint32(4), first.TotalKills)
	assert.Equal(t, []string{"Isgalamido", "Mocinha"}, first.Players)
	score, _ := first.Score("Isgalamido")
	assert.Equal(t, int32(-1), score)
	score, _ = first.Score("Mocinha")
	assert.Equal(t, int32(1), score)
	assert.Equal(t, uint32(2), first.KillsBy(causeofdeath.TriggerHurt))

	second := reports[1]
	assert.Equal(t, 1, second.Game)
	assert.Zero(t, second.TotalKills)
	assert.Empty(t, second.Players)
}

func TestRun_SkipsBadLines(t *testing.T) {
	input := "  0:00 InitGame:\n" +
		"garbage\n" +
		"  0:05 Kill: 2 3 7: Isgalamido killed Mocinha by MOD_SPORK\n" +
		"  0:06 Kill: 2 3 7: Isgalamido killed Mocinha by MOD_ROCKET\n" +
		"  1:00 ShutdownGame:\n"

	var out bytes.Buffer
	r := New(Options{Out: &out, Logger: testLogger()})

	sum, err := r.Run(context.Background(), source(input))
	require.NoError(t, err)
	assert.Equal(t, 5, sum.LinesRead)
	assert.Equal(t, 2, sum.LinesFailed)
	assert.Equal(t, 1, sum.Reports)

	reports := decodeReports(t, &out)
	require.Len(t, reports, 1)
	assert.Equal(t, uint32(1), reports[0].TotalKills, "failed lines leave no trace")
}

func TestRun_StrictAborts(t *testing.T) {
	input := "  0:00 InitGame:\n" +
		"  0:05 Kill: 2 3 7: Isgalamido killed Mocinha by MOD_SPORK\n" +
		"  1:00 ShutdownGame:\n"

	var out bytes.Buffer
	r := New(Options{Out: &out, Logger: testLogger(), Strict: true})

	sum, err := r.Run(context.Background(), source(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2: ")

	var lineErr *game.LineError
	require.ErrorAs(t, err, &lineErr)
	assert.ErrorIs(t, err, grammar.ErrMismatch)
	assert.ErrorIs(t, err, causeofdeath.ErrUnknown)

	assert.Equal(t, Summary{LinesRead: 2, LinesFailed: 1}, sum)
	assert.Empty(t, out.String())
}

func TestRun_FlushOnEOF(t *testing.T) {
	input := "  0:00 InitGame:\n" +
		"  0:05 Kill: 2 3 7: Isgalamido killed Mocinha by MOD_ROCKET\n"

	tests := []struct {
		name    string
		flush   bool
		reports int
	}{
		{name: "flush", flush: true, reports: 1},
		{name: "no flush", flush: false, reports: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			r := New(Options{Out: &out, Logger: testLogger(), FlushOnEOF: tt.flush})

			sum, err := r.Run(context.Background(), source(input))
			require.NoError(t, err)
			assert.Equal(t, tt.reports, sum.Reports)
			assert.Len(t, decodeReports(t, &out), tt.reports)
		})
	}
}

func TestRun_FlushSkipsEmptyGame(t *testing.T) {
	var out bytes.Buffer
	r := New(Options{Out: &out, Logger: testLogger(), FlushOnEOF: true})

	sum, err := r.Run(context.Background(), source(twoGames))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Reports)
}

func TestRun_SavesToStore(t *testing.T) {
	store := storage.NewMockStore()
	runID := uuid.New()
	r := New(Options{Store: store, RunID: runID, Logger: testLogger()})

	_, err := r.Run(context.Background(), source(twoGames))
	require.NoError(t, err)

	require.Len(t, store.SaveReportCalls, 2)
	for i, call := range store.SaveReportCalls {
		assert.Equal(t, runID, call.RunID)
		assert.Equal(t, i, call.Report.Game)
	}
}

func TestRun_StoreFailureIsNotFatal(t *testing.T) {
	store := storage.NewMockStore()
	store.SaveReportFunc = func(context.Context, uuid.UUID, *game.Report) error {
		return errors.New("connection refused")
	}

	var out bytes.Buffer
	r := New(Options{Out: &out, Store: store, Logger: testLogger()})

	sum, err := r.Run(context.Background(), source(twoGames))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Reports)
	assert.Len(t, decodeReports(t, &out), 2)
}

type failingSource struct {
	lines []string
	err   error
}

func (s *failingSource) ReadLine(context.Context) (string, bool, error) {
	if len(s.lines) == 0 {
		return "", false, s.err
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, true, nil
}

func TestRun_ReadErrorIsFatal(t *testing.T) {
	src := &failingSource{
		lines: []string{"  0:00 InitGame:"},
		err:   io.ErrUnexpectedEOF,
	}
	r := New(Options{Logger: testLogger(), FlushOnEOF: true})

	sum, err := r.Run(context.Background(), src)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, 1, sum.LinesRead)
	assert.Zero(t, sum.Reports)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestRun_WriteErrorIsFatal(t *testing.T) {
	r := New(Options{Out: failingWriter{}, Logger: testLogger()})

	_, err := r.Run(context.Background(), source(twoGames))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game0")
}

func TestNew_AssignsRunID(t *testing.T) {
	r := New(Options{})
	assert.NotEqual(t, uuid.Nil, r.RunID())

	id := uuid.New()
	assert.Equal(t, id, New(Options{RunID: id}).RunID())
}

func TestRunner_CurrentAndFinished(t *testing.T) {
	input := twoGames + "  0:00 InitGame:\n" +
		"  0:05 Kill: 2 3 7: Isgalamido killed Mocinha by MOD_ROCKET\n"
	r := New(Options{Logger: testLogger()})

	_, err := r.Run(context.Background(), source(input))
	require.NoError(t, err)

	finished := r.Finished()
	require.Len(t, finished, 2)
	assert.Equal(t, 0, finished[0].Game)
	assert.Equal(t, 1, finished[1].Game)

	current := r.Current()
	assert.Equal(t, 2, current.Game)
	assert.Equal(t, uint32(1), current.TotalKills)
}

// cancelAfter cancels the run once n lines have been read.
type cancelAfter struct {
	src    LineSource
	n      int
	cancel context.CancelFunc
}

func (c *cancelAfter) ReadLine(ctx context.Context) (string, bool, error) {
	if c.n == 0 {
		c.cancel()
	}
	c.n--
	return c.src.ReadLine(ctx)
}

func TestRun_CancelledRunFlushes(t *testing.T) {
	input := "  0:00 InitGame:\n" +
		"  0:05 Kill: 2 3 7: Isgalamido killed Mocinha by MOD_ROCKET\n" +
		"  0:06 Kill: 2 3 7: Isgalamido killed Mocinha by MOD_ROCKET\n"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := storage.NewMockStore()
	var out bytes.Buffer
	r := New(Options{Out: &out, Store: store, Logger: testLogger(), FlushOnEOF: true})

	sum, err := r.Run(ctx, &cancelAfter{src: source(input), n: 2, cancel: cancel})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.LinesRead)
	assert.Equal(t, 1, sum.Reports)

	reports := decodeReports(t, &out)
	require.Len(t, reports, 1)
	assert.Equal(t, uint32(1), reports[0].TotalKills)
	require.Len(t, store.SaveReportCalls, 1)
}

func TestRun_Latin1PlayersStayDistinct(t *testing.T) {
	input := "  0:00 InitGame:\n" +
		"  0:16 Kill: 6 2 7: Jo\xe9 killed Jo\xe8 by MOD_ROCKET\n" +
		"  1:00 ShutdownGame:\n"

	var out bytes.Buffer
	r := New(Options{Out: &out, Logger: testLogger()})

	_, err := r.Run(context.Background(), source(input))
	require.NoError(t, err)

	reports := decodeReports(t, &out)
	require.Len(t, reports, 1)
	assert.Equal(t, []string{"Joè", "Joé"}, reports[0].Players)
	require.Len(t, reports[0].Kills, 2)
	score, ok := reports[0].Score("Joé")
	require.True(t, ok)
	assert.Equal(t, int32(1), score)
}
