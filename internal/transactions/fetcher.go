package transactions

import (
	"context"
	"fmt"

	"github.com/Sternrassler/warera-trades/pkg/client"
	"github.com/Sternrassler/warera-trades/pkg/logging"
	"github.com/Sternrassler/warera-trades/pkg/pagination"
	"github.com/rs/zerolog"
)

// Procedure is the tRPC procedure serving transaction pages.
const Procedure = "transaction.getPaginatedTransactions"

// Querier performs one tRPC query. *client.Client satisfies it.
type Querier interface {
	Query(ctx context.Context, procedure string, input client.Input, out any) error
}

// Params are the fixed filters sent with every page request.
type Params struct {
	Limit           int
	CountryID       string
	TransactionType string
}

// DefaultParams returns the filters of the Chile trading export.
func DefaultParams() Params {
	return Params{
		Limit:           100,
		CountryID:       "6813b6d546e731854c7ac83c",
		TransactionType: "trading",
	}
}

type pageData struct {
	Items      *[]Transaction `json:"items"`
	NextCursor *string        `json:"nextCursor"`
}

// Fetcher retrieves every transaction matching Params.
type Fetcher struct {
	querier Querier
	params  Params
	paging  pagination.Config
	logger  zerolog.Logger
}

// NewFetcher creates a fetcher.
func NewFetcher(q Querier, params Params, paging pagination.Config) *Fetcher {
	return &Fetcher{
		querier: q,
		params:  params,
		paging:  paging,
		logger:  logging.NewLogger("transactions"),
	}
}

// Input builds the query input for the page at cursor.
func (f *Fetcher) Input(cursor string) client.Input {
	in := client.Input{
		"limit":           f.params.Limit,
		"countryId":       f.params.CountryID,
		"transactionType": f.params.TransactionType,
	}
	if cursor != "" {
		in["cursor"] = cursor
	}
	return in
}

// FetchPage implements pagination.PageFetcher.
func (f *Fetcher) FetchPage(ctx context.Context, cursor string) (pagination.Page[Transaction], error) {
	var data pageData
	if err := f.querier.Query(ctx, Procedure, f.Input(cursor), &data); err != nil {
		return pagination.Page[Transaction]{}, err
	}
	if data.Items == nil {
		return pagination.Page[Transaction]{}, fmt.Errorf("%w: missing result.data.items", client.ErrDecode)
	}

	page := pagination.Page[Transaction]{Items: *data.Items}
	if data.NextCursor != nil {
		page.NextCursor = *data.NextCursor
	}
	return page, nil
}

// FetchAll walks every page. A non-success status ends the walk early and
// the transactions gathered so far are returned without error; transport
// and decoding failures are returned as errors.
func (f *Fetcher) FetchAll(ctx context.Context) (Collection, error) {
	res, err := pagination.NewWalker[Transaction](f, f.paging).Walk(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	if res.Halted != nil {
		f.logger.Error().Err(res.Halted).Int("kept", len(res.Items)).Msg("Transaction fetch stopped early")
	}
	return Collection(res.Items), nil
}
