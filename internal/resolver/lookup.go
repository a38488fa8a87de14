package resolver

import (
	"context"

	"github.com/Sternrassler/warera-trades/pkg/client"
)

// Procedures used for name lookups.
const (
	UserProcedure    = "user.getUserLite"
	CountryProcedure = "country.getCountryById"
)

// Querier performs one tRPC query. *client.Client satisfies it.
type Querier interface {
	Query(ctx context.Context, procedure string, input client.Input, out any) error
}

// UserLookup resolves user IDs through user.getUserLite.
func UserLookup(q Querier) Lookup {
	return func(ctx context.Context, id string) (string, error) {
		var data struct {
			Username string `json:"username"`
		}
		if err := q.Query(ctx, UserProcedure, client.Input{"userId": id}, &data); err != nil {
			return "", err
		}
		return data.Username, nil
	}
}

// CountryLookup resolves country IDs through country.getCountryById.
func CountryLookup(q Querier) Lookup {
	return func(ctx context.Context, id string) (string, error) {
		var data struct {
			Name string `json:"name"`
		}
		if err := q.Query(ctx, CountryProcedure, client.Input{"countryId": id}, &data); err != nil {
			return "", err
		}
		return data.Name, nil
	}
}
