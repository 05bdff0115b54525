package itemsync

import (
	"finsync/internal/domain/account"
	"finsync/internal/domain/transaction"
	"finsync/internal/infrastructure/plaid"
)

func toAccountRecords(in []plaid.Account) []account.Record {
	out := make([]account.Record, 0, len(in))
	for i := range in {
		a := &in[i]
		out = append(out, account.Record{
			AccountID:      a.AccountID,
			Name:           a.Name,
			Type:           a.Type,
			Subtype:        a.SubtypeOrEmpty(),
			BalanceCurrent: a.CurrentBalance(),
			Currency:       a.Currency(),
		})
	}
	return out
}

// toPage maps added and modified transactions to upserts, in that order.
func toPage(p *plaid.SyncPage) Page {
	page := Page{
		Upserts: make([]transaction.Record, 0, len(p.Added)+len(p.Modified)),
		Removed: make([]string, 0, len(p.Removed)),
	}
	for _, list := range [][]plaid.Transaction{p.Added, p.Modified} {
		for i := range list {
			page.Upserts = append(page.Upserts, toTransactionRecord(&list[i]))
		}
	}
	for _, r := range p.Removed {
		if r.TransactionID != "" {
			page.Removed = append(page.Removed, r.TransactionID)
		}
	}
	return page
}

func toTransactionRecord(t *plaid.Transaction) transaction.Record {
	date := t.Date
	if t.Datetime != nil && *t.Datetime != "" {
		date = *t.Datetime
	}
	return transaction.Record{
		TransactionID:   t.TransactionID,
		AccountID:       t.AccountID,
		Amount:          t.Amount,
		Date:            date,
		MerchantName:    t.Merchant(),
		Description:     t.Name,
		Pending:         t.Pending,
		Categories:      t.Categories(),
		IsoCurrencyCode: t.Currency(),
	}
}
