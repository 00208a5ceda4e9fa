package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/haeyeon/festabot/internal/core"
)

// eventRow mirrors one record of the Seoul open-data cultural event
// feed. Field names follow the feed, values are raw strings.
type eventRow struct {
	Codename  string `json:"CODENAME"`
	GuName    string `json:"GUNAME"`
	Title     string `json:"TITLE"`
	DateText  string `json:"DATE"`
	Place     string `json:"PLACE"`
	OrgName   string `json:"ORG_NAME"`
	UseTarget string `json:"USE_TRGT"`
	UseFee    string `json:"USE_FEE"`
	Inquiry   string `json:"INQUIRY"`
	Player    string `json:"PLAYER"`
	Program   string `json:"PROGRAM"`
	EtcDesc   string `json:"ETC_DESC"`
	OrgLink   string `json:"ORG_LINK"`
	MainImg   string `json:"MAIN_IMG"`
	Ticket    string `json:"TICKET"`
	StartDate string `json:"STRTDATE"`
	EndDate   string `json:"END_DATE"`
	ThemeCode string `json:"THEMECODE"`
	Lot       string `json:"LOT"`
	Lat       string `json:"LAT"`
	IsFree    string `json:"IS_FREE"`
	HmpgAddr  string `json:"HMPG_ADDR"`
	ProTime   string `json:"PRO_TIME"`
}

var dateLayouts = []string{"2006-01-02", "2006.01.02", "20060102"}

// parseDateOrNone normalizes a feed date to YYYY-MM-DD. The feed mixes
// plain dates with datetime strings like "2025-11-15 00:00:00.0"; the
// time part is ignored. Unparseable input yields an empty string.
func parseDateOrNone(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

func parseFloatOrNone(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return f
}

func rowToEvent(row eventRow) core.Event {
	return core.Event{
		Codename:   strings.TrimSpace(row.Codename),
		GuName:     strings.TrimSpace(row.GuName),
		Title:      strings.TrimSpace(row.Title),
		DateText:   strings.TrimSpace(row.DateText),
		Place:      strings.TrimSpace(row.Place),
		OrgName:    strings.TrimSpace(row.OrgName),
		UseTarget:  strings.TrimSpace(row.UseTarget),
		UseFee:     strings.TrimSpace(row.UseFee),
		Inquiry:    strings.TrimSpace(row.Inquiry),
		Player:     strings.TrimSpace(row.Player),
		Program:    strings.TrimSpace(row.Program),
		EtcDesc:    strings.TrimSpace(row.EtcDesc),
		OrgLink:    strings.TrimSpace(row.OrgLink),
		MainImg:    strings.TrimSpace(row.MainImg),
		TicketType: strings.TrimSpace(row.Ticket),
		StartDate:  parseDateOrNone(row.StartDate),
		EndDate:    parseDateOrNone(row.EndDate),
		ThemeCode:  strings.TrimSpace(row.ThemeCode),
		Lot:        parseFloatOrNone(row.Lot),
		Lat:        parseFloatOrNone(row.Lat),
		IsFree:     strings.TrimSpace(row.IsFree),
		HmpgAddr:   strings.TrimSpace(row.HmpgAddr),
		ProTime:    strings.TrimSpace(row.ProTime),
	}
}
