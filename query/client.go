// Package query is the read-only facade over the chain's NFT module and
// account store.
package query

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Cogwheel-Validator/reified-portal/address"
	"github.com/Cogwheel-Validator/reified-portal/lcd"
	"github.com/Cogwheel-Validator/reified-portal/nft"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "query").Logger()
}

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "query").Logger()
}

var tracer = otel.Tracer("github.com/Cogwheel-Validator/reified-portal/query")

// DefaultRoutePrefix is where the chain's NFT module is mounted on the REST
// gateway.
const DefaultRoutePrefix = "/nft"

// Getter is the subset of the REST client used for queries.
type Getter interface {
	Get(ctx context.Context, path string, out any) error
}

// Client answers read-only questions about denoms, tokens and accounts.
// It is safe for concurrent use.
type Client struct {
	rest         Getter
	routePrefix  string
	bech32Prefix string
}

// Option configures a Client.
type Option func(*Client)

// WithRoutePrefix overrides DefaultRoutePrefix.
func WithRoutePrefix(prefix string) Option {
	return func(c *Client) {
		c.routePrefix = "/" + strings.Trim(prefix, "/")
	}
}

// WithBech32Prefix restricts IsValidAddress to addresses of one chain.
func WithBech32Prefix(prefix string) Option {
	return func(c *Client) {
		c.bech32Prefix = prefix
	}
}

// New creates a query client on top of a REST client.
func New(rest Getter, opts ...Option) *Client {
	c := &Client{
		rest:        rest,
		routePrefix: DefaultRoutePrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ nft.ChainQuery = (*Client)(nil)

func (c *Client) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "query."+name, trace.WithAttributes(attrs...))
}

// get fetches path and classifies the failure. Absent objects come back as
// nft.ErrNotFound, anything else unexpected as *nft.TransportError.
func (c *Client) get(ctx context.Context, span trace.Span, op, path string, out any) error {
	err := c.rest.Get(ctx, path, out)
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		span.SetAttributes(attribute.Bool("not_found", true))
		return fmt.Errorf("%s: %w", op, nft.ErrNotFound)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	log.Debug().Err(err).Str("op", op).Str("path", path).Msg("Query failed")
	return &nft.TransportError{Op: op, Err: err}
}

// isNotFound recognises the different ways the node says "no such object".
// The NFT module reports a missing denom or token as a generic error whose
// message contains "not found".
func isNotFound(err error) bool {
	if errors.Is(err, lcd.ErrNotFound) {
		return true
	}
	var apiErr *lcd.APIError
	if errors.As(err, &apiErr) {
		return strings.Contains(strings.ToLower(apiErr.Message), "not found")
	}
	return false
}

// AllDenoms fetches every denom on the chain, following pagination.
func (c *Client) AllDenoms(ctx context.Context) ([]nft.Denom, error) {
	ctx, span := c.start(ctx, "AllDenoms")
	defer span.End()

	denoms := make([]nft.Denom, 0)
	nextKey := ""

	for {
		path := c.routePrefix + "/denoms"
		if nextKey != "" {
			path = fmt.Sprintf("%s?pagination.key=%s", path, url.QueryEscape(nextKey))
		}

		var response denomsResponse
		if err := c.get(ctx, span, "query denoms", path, &response); err != nil {
			return nil, err
		}
		for _, d := range response.Denoms {
			denoms = append(denoms, d.toDenom())
		}

		if response.Pagination.NextKey == "" {
			break
		}
		nextKey = response.Pagination.NextKey
	}

	span.SetAttributes(attribute.Int("denoms.count", len(denoms)))
	return denoms, nil
}

// Denom looks up a denom by id.
func (c *Client) Denom(ctx context.Context, id string) (nft.Denom, error) {
	ctx, span := c.start(ctx, "Denom", attribute.String("denom.id", id))
	defer span.End()

	if id == "" {
		return nft.Denom{}, fmt.Errorf("query denom: empty id: %w", nft.ErrNotFound)
	}
	var response denomResponse
	path := fmt.Sprintf("%s/denoms/%s", c.routePrefix, url.PathEscape(id))
	if err := c.get(ctx, span, "query denom", path, &response); err != nil {
		return nft.Denom{}, err
	}
	return response.Denom.toDenom(), nil
}

// DenomByName looks up a denom by its unique name.
func (c *Client) DenomByName(ctx context.Context, name string) (nft.Denom, error) {
	ctx, span := c.start(ctx, "DenomByName", attribute.String("denom.name", name))
	defer span.End()

	if name == "" {
		return nft.Denom{}, fmt.Errorf("query denom by name: empty name: %w", nft.ErrNotFound)
	}
	var response denomResponse
	path := fmt.Sprintf("%s/denoms/name/%s", c.routePrefix, url.PathEscape(name))
	if err := c.get(ctx, span, "query denom by name", path, &response); err != nil {
		return nft.Denom{}, err
	}
	return response.Denom.toDenom(), nil
}

// DenomBySymbol looks up a denom by its unique symbol.
func (c *Client) DenomBySymbol(ctx context.Context, symbol string) (nft.Denom, error) {
	ctx, span := c.start(ctx, "DenomBySymbol", attribute.String("denom.symbol", symbol))
	defer span.End()

	if symbol == "" {
		return nft.Denom{}, fmt.Errorf("query denom by symbol: empty symbol: %w", nft.ErrNotFound)
	}
	var response denomResponse
	path := fmt.Sprintf("%s/denoms/symbol/%s", c.routePrefix, url.PathEscape(symbol))
	if err := c.get(ctx, span, "query denom by symbol", path, &response); err != nil {
		return nft.Denom{}, err
	}
	return response.Denom.toDenom(), nil
}

// Collection returns a denom with all of its tokens.
func (c *Client) Collection(ctx context.Context, denomID string) (nft.Collection, error) {
	ctx, span := c.start(ctx, "Collection", attribute.String("denom.id", denomID))
	defer span.End()

	var collection nft.Collection
	nextKey := ""
	first := true

	for {
		path := fmt.Sprintf("%s/collections/%s", c.routePrefix, url.PathEscape(denomID))
		if nextKey != "" {
			path = fmt.Sprintf("%s?pagination.key=%s", path, url.QueryEscape(nextKey))
		}

		var response collectionResponse
		if err := c.get(ctx, span, "query collection", path, &response); err != nil {
			return nft.Collection{}, err
		}
		if first {
			collection.Denom = response.Collection.Denom.toDenom()
			collection.NFTs = make([]nft.Nft, 0, len(response.Collection.NFTs))
			first = false
		}
		for _, token := range response.Collection.NFTs {
			collection.NFTs = append(collection.NFTs, token.toNft())
		}

		if response.Pagination.NextKey == "" {
			break
		}
		nextKey = response.Pagination.NextKey
	}

	span.SetAttributes(attribute.Int("nfts.count", len(collection.NFTs)))
	return collection, nil
}

// Token looks up a single token of a denom.
func (c *Client) Token(ctx context.Context, denomID, tokenID string) (nft.Nft, error) {
	ctx, span := c.start(ctx, "Token",
		attribute.String("denom.id", denomID), attribute.String("token.id", tokenID))
	defer span.End()

	var response nftResponse
	path := fmt.Sprintf("%s/nfts/%s/%s", c.routePrefix, url.PathEscape(denomID), url.PathEscape(tokenID))
	if err := c.get(ctx, span, "query nft", path, &response); err != nil {
		return nft.Nft{}, err
	}
	return response.NFT.toNft(), nil
}

// Supply returns how many tokens a denom has.
func (c *Client) Supply(ctx context.Context, denomID string) (uint64, error) {
	ctx, span := c.start(ctx, "Supply", attribute.String("denom.id", denomID))
	defer span.End()

	var response supplyResponse
	path := fmt.Sprintf("%s/collections/%s/supply", c.routePrefix, url.PathEscape(denomID))
	if err := c.get(ctx, span, "query supply", path, &response); err != nil {
		return 0, err
	}
	return response.Amount, nil
}

/*
IsValidAddress reports whether address is a well formed account address
that the chain knows about.

A malformed address, an address of another chain and an address the chain
has never seen all answer false without an error. Only a failure to ask the
chain is returned as an error.
*/
func (c *Client) IsValidAddress(ctx context.Context, addr string) (bool, error) {
	ctx, span := c.start(ctx, "IsValidAddress", attribute.String("account.address", addr))
	defer span.End()

	if err := address.Validate(addr, c.bech32Prefix); err != nil {
		span.SetAttributes(attribute.Bool("malformed", true))
		return false, nil
	}

	var response accountResponse
	path := "/cosmos/auth/v1beta1/accounts/" + url.PathEscape(addr)
	if err := c.get(ctx, span, "query account", path, &response); err != nil {
		if nft.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
