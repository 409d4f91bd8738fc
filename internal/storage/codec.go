package storage

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/taneryldrm/bugless-crm-sub000/internal/core"
)

type scanner interface {
	Scan(dest ...any) error
}

// transactionRecord is a transaction in its column representation.
type transactionRecord struct {
	date      string
	kind      string
	amount    string
	method    string
	projectID sql.NullInt64
}

// encodeTransaction writes unparsed raw values back unchanged so a rewrite
// of an untouched legacy field does not destroy it.
func encodeTransaction(t core.Transaction) transactionRecord {
	rec := transactionRecord{
		date:   t.Date.String(),
		kind:   string(t.Kind),
		amount: t.Amount.String(),
		method: string(t.Method),
	}
	if t.Raw.Date != "" {
		rec.date = t.Raw.Date
	}
	if t.Raw.AmountInvalid() {
		rec.amount = t.Raw.Amount
	}
	if t.ProjectID != nil {
		rec.projectID = sql.NullInt64{Int64: *t.ProjectID, Valid: true}
	}
	return rec
}

// scanTransaction reads one row and coerces loosely typed columns. Values
// that do not parse are kept in Raw and surface later as data quality
// issues instead of failing the whole read.
func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t         core.Transaction
		rec       transactionRecord
		category  sql.NullString
		desc      sql.NullString
		payer     sql.NullString
		projectID sql.NullInt64
	)
	if err := s.Scan(&t.ID, &rec.date, &rec.kind, &category, &rec.amount, &desc, &payer, &rec.method, &projectID, &t.Settled); err != nil {
		return core.Transaction{}, err
	}

	t.Category = category.String
	t.Description = desc.String
	t.Payer = payer.String
	t.Kind = core.ParseKind(rec.kind)
	t.Method = core.ParseMethod(rec.method)
	if projectID.Valid {
		id := projectID.Int64
		t.ProjectID = &id
	}

	if d, err := core.ParseDate(rec.date); err == nil {
		t.Date = d
	} else {
		t.Raw.Date = rec.date
	}
	if a, err := core.ParseAmount(rec.amount); err == nil {
		t.Amount = a
	} else {
		t.Raw.Amount = rec.amount
		t.Raw.AmountMissing = strings.TrimSpace(rec.amount) == ""
	}

	return t.Normalize(), nil
}

type pendingRecord struct {
	amount    string
	memberIDs string
	createdAt string
	created   time.Time
}

func encodePending(w core.PendingWrite) pendingRecord {
	created := w.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	ids := make([]string, len(w.MemberIDs))
	for i, id := range w.MemberIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return pendingRecord{
		amount:    w.Amount.String(),
		memberIDs: strings.Join(ids, ","),
		createdAt: created.Format(time.RFC3339Nano),
		created:   created,
	}
}

func scanPending(s scanner) (core.PendingWrite, error) {
	var (
		w    core.PendingWrite
		rec  pendingRecord
		saga string
	)
	if err := s.Scan(&w.ID, &saga, &w.OriginID, &w.Payer, &rec.amount, &rec.memberIDs, &rec.createdAt); err != nil {
		return core.PendingWrite{}, err
	}
	w.Saga = core.Saga(saga)
	w.Amount, _ = core.ParseAmount(rec.amount)
	for _, part := range strings.Split(rec.memberIDs, ",") {
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return core.PendingWrite{}, err
		}
		w.MemberIDs = append(w.MemberIDs, id)
	}
	w.CreatedAt, _ = time.Parse(time.RFC3339Nano, rec.createdAt)
	return w, nil
}
