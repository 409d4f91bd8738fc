package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/taneryldrm/bugless-crm-sub000/internal/core"
	"github.com/taneryldrm/bugless-crm-sub000/internal/events"
	"github.com/taneryldrm/bugless-crm-sub000/internal/log"
	"github.com/taneryldrm/bugless-crm-sub000/internal/store"
)

// CollectionCategory is the category of income recorded by Collect.
const CollectionCategory = "collection"

var ErrNonPositiveAmount = errors.New("amount must be greater than zero")

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

func systemClock() time.Time { return time.Now() }

// CollectionService records payments received from clients.
type CollectionService struct {
	store  store.Store
	clock  Clock
	notify notifier
	logger *log.Logger
}

func NewCollectionService(st store.Store, publisher events.Publisher, clock Clock, logger *log.Logger) *CollectionService {
	if clock == nil {
		clock = systemClock
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &CollectionService{
		store:  st,
		clock:  clock,
		notify: notifier{publisher: publisher, logger: logger.WithComponent(log.ComponentEvents)},
		logger: logger.WithComponent(log.ComponentMatching),
	}
}

// Collect inserts an income row paid by the client. The payer is the
// client's name and no project is linked, so the balance matcher picks it
// up by name. A zero date means today.
func (s *CollectionService) Collect(ctx context.Context, clientID int64, amount decimal.Decimal, date core.Date, method core.Method, description string) (core.Transaction, error) {
	if !amount.IsPositive() {
		return core.Transaction{}, ErrNonPositiveAmount
	}

	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("list clients: %w", err)
	}
	var client *core.Client
	for i := range clients {
		if clients[i].ID == clientID {
			client = &clients[i]
			break
		}
	}
	if client == nil {
		return core.Transaction{}, fmt.Errorf("client %d: %w", clientID, store.ErrNotFound)
	}

	if date.IsZero() {
		date = core.DateOf(s.clock())
	}
	tx := core.Transaction{
		Date:        date,
		Kind:        core.KindIncome,
		Category:    CollectionCategory,
		Amount:      amount,
		Description: description,
		Payer:       client.Name,
		Method:      method,
	}.Normalize()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate collection: %w", err)
	}

	saved, err := s.store.Insert(ctx, tx)
	if err != nil {
		return core.Transaction{}, &core.StoreCommandError{
			Intent: core.IntentRecordCollection,
			Op:     log.OpInsert,
			Err:    err,
		}
	}

	s.logger.InfoContext(ctx, "Collection recorded",
		log.FieldClientID, clientID,
		log.FieldTransactionID, saved.ID,
		log.FieldAmount, saved.Amount.StringFixed(2))
	e := events.New(events.CollectionRecorded)
	e.TransactionID = saved.ID
	e.Payer = saved.Payer
	e.Amount = saved.Amount
	s.notify.publish(ctx, e)

	return saved, nil
}
