package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haeyeon/festabot/internal/config"
	"github.com/haeyeon/festabot/internal/core"
)

func TestParseDateOrNone(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2025-11-15", "2025-11-15"},
		{"2025-11-15 00:00:00.0", "2025-11-15"},
		{"2025.11.15", "2025-11-15"},
		{"20251115", "2025-11-15"},
		{"  2025-11-15  ", "2025-11-15"},
		{"상시", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseDateOrNone(tt.raw), "raw=%q", tt.raw)
	}
}

func TestParseFloatOrNone(t *testing.T) {
	assert.Equal(t, 126.9779, parseFloatOrNone("126.9779"))
	assert.Equal(t, 37.5663, parseFloatOrNone(" 37.5663 "))
	assert.Equal(t, 0.0, parseFloatOrNone("미정"))
	assert.Equal(t, 0.0, parseFloatOrNone(""))
}

func TestRowToEvent(t *testing.T) {
	ev := rowToEvent(eventRow{
		Codename:  "축제-문화/예술",
		GuName:    " 종로구 ",
		Title:     "서울빛초롱축제",
		Place:     "광화문광장",
		UseFee:    "무료",
		StartDate: "2025-12-12 00:00:00.0",
		EndDate:   "2026-01-04 00:00:00.0",
		Lot:       "126.9779",
		Lat:       "37.5720",
		IsFree:    "무료",
	})

	assert.Equal(t, "종로구", ev.GuName)
	assert.Equal(t, "2025-12-12", ev.StartDate)
	assert.Equal(t, "2026-01-04", ev.EndDate)
	assert.Equal(t, 126.9779, ev.Lot)
	assert.Equal(t, 37.5720, ev.Lat)
}

type memStore struct {
	events []core.Event
}

func (s *memStore) Upsert(_ context.Context, ev core.Event) (bool, error) {
	for _, existing := range s.events {
		if existing.Title == ev.Title && existing.StartDate == ev.StartDate && existing.Place == ev.Place {
			return false, nil
		}
	}
	s.events = append(s.events, ev)
	return true, nil
}

func feedBody(service string, rows ...map[string]string) []byte {
	body, _ := json.Marshal(map[string]any{
		service: map[string]any{
			"list_total_count": len(rows),
			"RESULT":           map[string]string{"CODE": "INFO-000", "MESSAGE": "정상 처리되었습니다"},
			"row":              rows,
		},
	})
	return body
}

func TestCollectorSync(t *testing.T) {
	pages := map[string][]byte{
		"/KEY/json/culturalEventInfo/1/2/": feedBody("culturalEventInfo",
			map[string]string{"TITLE": "행사 A", "PLACE": "광장", "STRTDATE": "2025-11-01 00:00:00.0", "END_DATE": "2025-11-02 00:00:00.0"},
			map[string]string{"TITLE": "행사 B", "PLACE": "공원", "STRTDATE": "2025-11-05 00:00:00.0", "END_DATE": "2025-11-06 00:00:00.0"},
		),
		"/KEY/json/culturalEventInfo/3/4/": feedBody("culturalEventInfo",
			map[string]string{"TITLE": "행사 A", "PLACE": "광장", "STRTDATE": "2025-11-01 00:00:00.0", "END_DATE": "2025-11-02 00:00:00.0"},
		),
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	defer ts.Close()

	store := &memStore{}
	c := NewCollector(&config.SeoulConfig{
		BaseURL:  ts.URL,
		APIKey:   "KEY",
		Service:  "culturalEventInfo",
		PageSize: 2,
	}, store)

	require.NoError(t, c.sync(context.Background()))

	// Page two repeats 행사 A; the duplicate is not stored twice.
	require.Len(t, store.events, 2)
	assert.Equal(t, "행사 A", store.events[0].Title)
	assert.Equal(t, "2025-11-01", store.events[0].StartDate)
}

func TestCollectorSync_FeedError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"RESULT": {"CODE": "INFO-200", "MESSAGE": "해당하는 데이터가 없습니다"}}`)
	}))
	defer ts.Close()

	c := NewCollector(&config.SeoulConfig{
		BaseURL:  ts.URL,
		APIKey:   "KEY",
		Service:  "culturalEventInfo",
		PageSize: 2,
	}, &memStore{})

	err := c.sync(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INFO-200")
}
