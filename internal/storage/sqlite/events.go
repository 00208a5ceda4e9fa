package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/haeyeon/festabot/internal/core"
	"github.com/haeyeon/festabot/pkg/log"
	"github.com/haeyeon/festabot/pkg/vec"
)

type EventsRepo struct {
	db *sql.DB
}

func NewEventsRepo(db *sql.DB) *EventsRepo {
	return &EventsRepo{db: db}
}

const eventColumns = `id, codename, gu_name, title, date_text, place, org_name, use_target,
	use_fee, inquiry, player, program, etc_desc, org_link, main_img, ticket_type,
	start_date, end_date, theme_code, lot, lat, is_free, hmpg_addr, pro_time, embedding`

func scanEvent(rows *sql.Rows) (core.Event, error) {
	var ev core.Event
	var codename, guName, dateText, place, orgName, useTarget, useFee, inquiry,
		player, program, etcDesc, orgLink, mainImg, ticketType, startDate, endDate,
		themeCode, isFree, hmpgAddr, proTime sql.NullString
	var lot, lat sql.NullFloat64
	var embBlob []byte

	if err := rows.Scan(&ev.ID, &codename, &guName, &ev.Title, &dateText, &place,
		&orgName, &useTarget, &useFee, &inquiry, &player, &program, &etcDesc,
		&orgLink, &mainImg, &ticketType, &startDate, &endDate, &themeCode,
		&lot, &lat, &isFree, &hmpgAddr, &proTime, &embBlob); err != nil {
		return ev, fmt.Errorf("failed to scan event: %w", err)
	}

	ev.Codename = codename.String
	ev.GuName = guName.String
	ev.DateText = dateText.String
	ev.Place = place.String
	ev.OrgName = orgName.String
	ev.UseTarget = useTarget.String
	ev.UseFee = useFee.String
	ev.Inquiry = inquiry.String
	ev.Player = player.String
	ev.Program = program.String
	ev.EtcDesc = etcDesc.String
	ev.OrgLink = orgLink.String
	ev.MainImg = mainImg.String
	ev.TicketType = ticketType.String
	ev.StartDate = startDate.String
	ev.EndDate = endDate.String
	ev.ThemeCode = themeCode.String
	ev.IsFree = isFree.String
	ev.HmpgAddr = hmpgAddr.String
	ev.ProTime = proTime.String
	ev.Lot = lot.Float64
	ev.Lat = lat.Float64

	emb, err := vec.Deserialize(embBlob)
	if err != nil {
		return ev, err
	}
	ev.Embedding = emb
	return ev, nil
}

func (r *EventsRepo) queryEvents(ctx context.Context, query string, args ...any) ([]core.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []core.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// FindByIDs fetches the given records and returns them in exactly the
// order of ids. The order is what the user saw last time, so "the
// first one" keeps meaning the first one.
func (r *EventsRepo) FindByIDs(ctx context.Context, ids []int64) ([]core.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	events, err := r.queryEvents(ctx,
		fmt.Sprintf(`SELECT %s FROM seoul_events WHERE id IN (%s)`, eventColumns, placeholders),
		args...)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]core.Event, len(events))
	for _, ev := range events {
		byID[ev.ID] = ev
	}
	ordered := make([]core.Event, 0, len(events))
	for _, id := range ids {
		if ev, ok := byID[id]; ok {
			ordered = append(ordered, ev)
		}
	}
	return ordered, nil
}

// FindByDateRange returns events whose [start_date, end_date] interval
// overlaps the requested range, earliest first.
func (r *EventsRepo) FindByDateRange(ctx context.Context, dr core.DateRange, limit int) ([]core.Event, error) {
	start := dr.StartDate
	end := dr.EndDate
	// Open-ended ranges still filter on the bounded side.
	if start == "" {
		start = end
	}
	if end == "" {
		end = start
	}
	if start == "" {
		return nil, nil
	}

	return r.queryEvents(ctx,
		fmt.Sprintf(`SELECT %s FROM seoul_events
			WHERE start_date IS NOT NULL AND end_date IS NOT NULL
			  AND start_date <= ? AND end_date >= ?
			ORDER BY start_date ASC LIMIT ?`, eventColumns),
		end, start, limit)
}

// FindSimilar scans every embedded record, scores it against the query
// vector with cosine similarity and returns the top k, best first.
func (r *EventsRepo) FindSimilar(ctx context.Context, query []float32, k int) ([]core.Event, error) {
	events, err := r.queryEvents(ctx,
		fmt.Sprintf(`SELECT %s FROM seoul_events WHERE embedding IS NOT NULL`, eventColumns))
	if err != nil {
		return nil, err
	}

	type scored struct {
		sim float64
		ev  core.Event
	}
	ranked := make([]scored, 0, len(events))
	for _, ev := range events {
		ranked = append(ranked, scored{sim: vec.Cosine(query, ev.Embedding), ev: ev})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].sim > ranked[j].sim })

	if k > len(ranked) {
		k = len(ranked)
	}
	top := make([]core.Event, 0, k)
	for _, s := range ranked[:k] {
		top = append(top, s.ev)
	}

	log.FromCtx(ctx).Debug().Int("scanned", len(events)).Int("returned", len(top)).Msg("vector similarity search")
	return top, nil
}

// ListFilter mirrors the browse API query parameters.
type ListFilter struct {
	Codename  string
	GuName    string
	Search    string
	Date      string
	StartDate string
	EndDate   string
	IsFree    string
	Offset    int
	Limit     int
}

// List returns events matching the filter, ordered by start date.
func (r *EventsRepo) List(ctx context.Context, f ListFilter) ([]core.Event, error) {
	var conds []string
	var args []any

	if f.Codename != "" {
		conds = append(conds, "codename = ?")
		args = append(args, f.Codename)
	}
	if f.GuName != "" {
		conds = append(conds, "gu_name = ?")
		args = append(args, f.GuName)
	}
	if f.IsFree != "" {
		conds = append(conds, "is_free = ?")
		args = append(args, f.IsFree)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		conds = append(conds, "(title LIKE ? OR place LIKE ? OR org_name LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}
	if f.Date != "" {
		conds = append(conds, "start_date <= ? AND end_date >= ?")
		args = append(args, f.Date, f.Date)
	}
	if f.StartDate != "" {
		conds = append(conds, "end_date >= ?")
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		conds = append(conds, "start_date <= ?")
		args = append(args, f.EndDate)
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, f.Offset)

	return r.queryEvents(ctx,
		fmt.Sprintf(`SELECT %s FROM seoul_events %s ORDER BY start_date ASC LIMIT ? OFFSET ?`,
			eventColumns, where),
		args...)
}

// Get returns a single event or nil when absent.
func (r *EventsRepo) Get(ctx context.Context, id int64) (*core.Event, error) {
	events, err := r.FindByIDs(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}

// Upsert inserts a record if no row with the same title, start date
// and place exists. The feed re-sends old rows daily; only new ones
// are stored. Returns true when a row was inserted.
func (r *EventsRepo) Upsert(ctx context.Context, ev core.Event) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO seoul_events
			(codename, gu_name, title, date_text, place, org_name, use_target, use_fee,
			 inquiry, player, program, etc_desc, org_link, main_img, ticket_type,
			 start_date, end_date, theme_code, lot, lat, is_free, hmpg_addr, pro_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullable(ev.Codename), nullable(ev.GuName), ev.Title, nullable(ev.DateText),
		nullable(ev.Place), nullable(ev.OrgName), nullable(ev.UseTarget), nullable(ev.UseFee),
		nullable(ev.Inquiry), nullable(ev.Player), nullable(ev.Program), nullable(ev.EtcDesc),
		nullable(ev.OrgLink), nullable(ev.MainImg), nullable(ev.TicketType),
		nullable(ev.StartDate), nullable(ev.EndDate), nullable(ev.ThemeCode),
		ev.Lot, ev.Lat, nullable(ev.IsFree), nullable(ev.HmpgAddr), nullable(ev.ProTime))
	if err != nil {
		return false, fmt.Errorf("failed to upsert event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FindUnembedded returns events still waiting for a document
// embedding, oldest first.
func (r *EventsRepo) FindUnembedded(ctx context.Context, limit int) ([]core.Event, error) {
	return r.queryEvents(ctx,
		fmt.Sprintf(`SELECT %s FROM seoul_events WHERE embedding IS NULL ORDER BY id ASC LIMIT ?`, eventColumns),
		limit)
}

// SetEmbedding stores the document embedding for one event.
func (r *EventsRepo) SetEmbedding(ctx context.Context, id int64, embedding []float32) error {
	blob, err := vec.Serialize(embedding)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE seoul_events SET embedding = ? WHERE id = ?`, blob, id); err != nil {
		return fmt.Errorf("failed to set embedding: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
