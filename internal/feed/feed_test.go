package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intraday-sim-lab/internal/domain"
)

const sampleDay = `ShareCode,TradeDateTime,LastPrice,Volume,Flag
AOT,2024-03-11 10:00:05,58.25,500,Buy
AOT,2024-03-11 10:00:00,58.00,1000,Sell
AOT,2024-03-11 09:55:00,58.00,20000,Open
PTT,2024-03-11 10:00:02,30.25,300,Buy
`

func writeDayFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDayFile(t *testing.T) {
	path := writeDayFile(t, t.TempDir(), "day.csv", sampleDay)

	ticks, err := LoadDayFile(path)
	require.NoError(t, err)
	require.Len(t, ticks, 3)

	// Open prints dropped, remainder sorted by time.
	assert.Equal(t, "AOT", ticks[0].Symbol)
	assert.Equal(t, 58.00, ticks[0].Price)
	assert.Equal(t, "PTT", ticks[1].Symbol)
	assert.Equal(t, "AOT", ticks[2].Symbol)
	assert.Equal(t, domain.TickFlagBuy, ticks[2].Flag)
	assert.Equal(t, int64(500), ticks[2].Volume)
}

func TestLoadDayFile_BOMAndCaseInsensitiveHeader(t *testing.T) {
	content := "\uFEFFsharecode,tradedatetime,lastprice,volume,flag\nAOT,2024-03-11 10:00:00,58.00,100,Sell\n"
	path := writeDayFile(t, t.TempDir(), "day.csv", content)

	ticks, err := LoadDayFile(path)
	require.NoError(t, err)
	require.Len(t, ticks, 1)
	assert.Equal(t, "AOT", ticks[0].Symbol)
}

func TestLoadDayFile_MissingColumn(t *testing.T) {
	content := "ShareCode,TradeDateTime,LastPrice\nAOT,2024-03-11 10:00:00,58.00\n"
	path := writeDayFile(t, t.TempDir(), "day.csv", content)

	_, err := LoadDayFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")
}

func TestLoadDayFile_BadPrice(t *testing.T) {
	content := "ShareCode,TradeDateTime,LastPrice,Volume,Flag\nAOT,2024-03-11 10:00:00,abc,100,Sell\n"
	path := writeDayFile(t, t.TempDir(), "day.csv", content)

	_, err := LoadDayFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse price")
}

func TestLoadDayDir_MergesSorted(t *testing.T) {
	dir := t.TempDir()
	writeDayFile(t, dir, "aot.csv",
		"ShareCode,TradeDateTime,LastPrice,Volume,Flag\nAOT,2024-03-11 10:00:05,58.25,100,Buy\n")
	writeDayFile(t, dir, "ptt.csv",
		"ShareCode,TradeDateTime,LastPrice,Volume,Flag\nPTT,2024-03-11 10:00:00,30.00,200,Sell\n")
	writeDayFile(t, dir, "notes.txt", "ignored")

	ticks, err := LoadDayDir(dir)
	require.NoError(t, err)
	require.Len(t, ticks, 2)
	assert.Equal(t, "PTT", ticks[0].Symbol)
	assert.Equal(t, "AOT", ticks[1].Symbol)
}

func TestSliceSource_Collect(t *testing.T) {
	want := []*domain.Tick{
		{Symbol: "AOT", Time: time.Now(), Price: 58, Volume: 100, Flag: domain.TickFlagSell},
		{Symbol: "AOT", Time: time.Now(), Price: 58.25, Volume: 200, Flag: domain.TickFlagBuy},
	}

	got, err := Collect(context.Background(), NewSliceSource(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSliceSource_ContextCancel(t *testing.T) {
	ticks := make([]*domain.Tick, 100)
	for i := range ticks {
		ticks[i] = &domain.Tick{Symbol: "AOT", Time: time.Now(), Flag: domain.TickFlagSell}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Collect(ctx, NewSliceSource(ticks))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWSSource_StreamsTicks(t *testing.T) {
	upgrader := websocket.Upgrader{}
	messages := []string{
		`{"symbol":"AOT","time":"2024-03-11 10:00:00","price":58.0,"volume":1000,"flag":"Sell"}`,
		`{"symbol":"AOT","time":"2024-03-11 09:55:00","price":58.0,"volume":9999,"flag":"Open"}`,
		`{"symbol":"AOT","time":"2024-03-11 10:00:05","price":58.25,"volume":500,"flag":"Buy"}`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, msg := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		// Keep the connection open until the client closes.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	endpoint := "ws" + strings.TrimPrefix(server.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	src, err := NewWSSource(ctx, endpoint, nil, nil)
	require.NoError(t, err)
	defer src.Close()

	ch, err := src.Stream(ctx)
	require.NoError(t, err)

	var got []*domain.Tick
	for len(got) < 2 {
		select {
		case tick, ok := <-ch:
			require.True(t, ok, "stream closed early: %v", src.Err())
			got = append(got, tick)
		case <-ctx.Done():
			t.Fatal("timed out waiting for ticks")
		}
	}

	// The Open print is filtered out.
	assert.Equal(t, domain.TickFlagSell, got[0].Flag)
	assert.Equal(t, int64(1000), got[0].Volume)
	assert.Equal(t, domain.TickFlagBuy, got[1].Flag)
	assert.Equal(t, 58.25, got[1].Price)
}

func TestDecodeTick_Malformed(t *testing.T) {
	_, err := decodeTick([]byte(`{"time":"2024-03-11 10:00:00"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing symbol")

	_, err = decodeTick([]byte(`not json`))
	require.Error(t, err)
}
