package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/hive-engine-go/internal/api"
	"github.com/aman-zulfiqar/hive-engine-go/internal/chain"
	"github.com/aman-zulfiqar/hive-engine-go/internal/models"
	"github.com/aman-zulfiqar/hive-engine-go/internal/nft"
	"github.com/aman-zulfiqar/hive-engine-go/internal/tokens"
	"github.com/aman-zulfiqar/hive-engine-go/internal/wallet"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Handlers serves the read-only gateway endpoints
type Handlers struct {
	API     *api.Client    // Sidechain query client
	DevMode bool           // Include error details in responses
	Logger  *logrus.Logger // Structured logger

	// QueryTimeout bounds one node round trip; listings get listingRounds
	QueryTimeout time.Duration
}

const (
	defaultQueryTimeout = 5 * time.Second
	listingRounds       = 6
)

// err returns a standardized JSON error response
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	if code == http.StatusServiceUnavailable {
		c.Response().Header().Set("Retry-After", retryAfterSeconds)
	}
	return c.JSON(code, resp)
}

// fail maps a query error onto a status code
func (h *Handlers) fail(c echo.Context, err error, msg string) error {
	code := statusFor(err)
	if code >= http.StatusInternalServerError && h.Logger != nil {
		h.Logger.WithError(err).WithField("path", c.Path()).Warn(msg)
	}
	return h.err(c, code, msg, map[string]any{"err": err.Error()})
}

// withTimeout bounds a handler's node calls to rounds query timeouts
func (h *Handlers) withTimeout(ctx context.Context, rounds int) (context.Context, context.CancelFunc) {
	d := h.QueryTimeout
	if d <= 0 {
		d = defaultQueryTimeout
	}
	return context.WithTimeout(ctx, time.Duration(rounds)*d)
}

// page reads limit and offset query parameters
func (h *Handlers) page(c echo.Context, def, max int) (limit, offset int, ok bool) {
	limit = def
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > max {
			_ = h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max " + strconv.Itoa(max)})
			return 0, 0, false
		}
		limit = n
	}
	if v := c.QueryParam("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			_ = h.err(c, http.StatusBadRequest, "invalid offset", map[string]any{"offset": "must be a non-negative integer"})
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}

func symbolParam(c echo.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
}

func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// Status returns the node status
func (h *Handlers) Status(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 1)
	defer cancel()

	st, err := h.API.Status(ctx)
	if err != nil {
		return h.fail(c, err, "failed to get status")
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handlers) LatestBlock(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 1)
	defer cancel()

	b, err := h.API.LatestBlock(ctx)
	if err != nil {
		return h.fail(c, err, "failed to get latest block")
	}
	if b == nil {
		return h.err(c, http.StatusNotFound, "block not found", nil)
	}
	return c.JSON(http.StatusOK, b)
}

// Block returns a block by number; blocks past the head are 404
func (h *Handlers) Block(c echo.Context) error {
	num, err := strconv.ParseInt(c.Param("number"), 10, 64)
	if err != nil || num < 0 {
		return h.err(c, http.StatusBadRequest, "invalid block number", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 1)
	defer cancel()

	b, err := h.API.Block(ctx, num)
	if err != nil {
		return h.fail(c, err, "failed to get block")
	}
	if b == nil {
		return h.err(c, http.StatusNotFound, "block not found", nil)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handlers) Transaction(c echo.Context) error {
	txid := strings.TrimSpace(c.Param("txid"))
	if txid == "" {
		return h.err(c, http.StatusBadRequest, "invalid txid", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 1)
	defer cancel()

	raw, err := h.API.GetTransactionInfo(ctx, txid)
	if err != nil {
		return h.fail(c, err, "failed to get transaction")
	}
	return h.document(c, raw, "transaction not found")
}

// Contract returns a contract definition including its code
func (h *Handlers) Contract(c echo.Context) error {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		return h.err(c, http.StatusBadRequest, "invalid contract name", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 1)
	defer cancel()

	raw, err := h.API.GetContract(ctx, name)
	if err != nil {
		return h.fail(c, err, "failed to get contract")
	}
	return h.document(c, raw, "contract not found")
}

// document writes a single node document, or 404 when the node had none
func (h *Handlers) document(c echo.Context, raw json.RawMessage, missing string) error {
	var doc map[string]any
	found, err := api.DecodeOne(raw, &doc)
	if err != nil {
		return h.fail(c, err, "failed to decode node response")
	}
	if !found {
		return h.err(c, http.StatusNotFound, missing, nil)
	}
	return c.JSON(http.StatusOK, doc)
}

// Tokens lists every token on the sidechain
func (h *Handlers) Tokens(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), listingRounds)
	defer cancel()

	ts, err := tokens.LoadAll(ctx, h.API)
	if err != nil {
		return h.fail(c, err, "failed to list tokens")
	}
	items := ts.List()
	return c.JSON(http.StatusOK, ListResponse{Items: items, Count: len(items)})
}

func (h *Handlers) Token(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 1)
	defer cancel()

	tok, err := tokens.Load(ctx, h.API, symbolParam(c))
	if err != nil {
		return h.fail(c, err, "failed to get token")
	}
	return c.JSON(http.StatusOK, tok)
}

// TokenMarket returns the market metrics of a token; unlisted tokens are 404
func (h *Handlers) TokenMarket(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 1)
	defer cancel()

	tok, err := tokens.Load(ctx, h.API, symbolParam(c))
	if err != nil {
		return h.fail(c, err, "failed to get token")
	}
	m, err := tok.GetMarketInfo(ctx)
	if err != nil {
		return h.fail(c, err, "failed to get market info")
	}
	if m == nil {
		return h.err(c, http.StatusNotFound, "token is not listed on the market", nil)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handlers) BuyBook(c echo.Context) error {
	return h.book(c, (*tokens.Token).GetBuyBook)
}

func (h *Handlers) SellBook(c echo.Context) error {
	return h.book(c, (*tokens.Token).GetSellBook)
}

func (h *Handlers) book(c echo.Context, read func(*tokens.Token, context.Context, int, int) ([]models.Order, error)) error {
	limit, offset, ok := h.page(c, tokens.DefaultBookLimit, 1000)
	if !ok {
		return nil
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 1)
	defer cancel()

	tok, err := tokens.Load(ctx, h.API, symbolParam(c))
	if err != nil {
		return h.fail(c, err, "failed to get token")
	}
	orders, err := read(tok, ctx, limit, offset)
	if err != nil {
		return h.fail(c, err, "failed to get order book")
	}
	return c.JSON(http.StatusOK, ListResponse{Items: orders, Count: len(orders)})
}

// Wallet returns every balance of an account
func (h *Handlers) Wallet(c echo.Context) error {
	w, err := wallet.New(h.API, nil, strings.TrimSpace(c.Param("account")))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid account", map[string]any{"err": err.Error()})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 2)
	defer cancel()

	if err := w.Refresh(ctx); err != nil {
		return h.fail(c, err, "failed to get balances")
	}
	return c.JSON(http.StatusOK, WalletResponse{Account: w.Account(), Balances: w.Balances()})
}

// History returns one page of an account's history for a symbol
func (h *Handlers) History(c echo.Context) error {
	account := strings.TrimSpace(c.Param("account"))
	if err := chain.ValidateAccount(account); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid account", map[string]any{"err": err.Error()})
	}
	limit, offset, ok := h.page(c, 100, 500)
	if !ok {
		return nil
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), listingRounds)
	defer cancel()

	entries, err := h.API.GetHistoryEntries(ctx, account, symbolParam(c), limit, offset)
	if err != nil {
		return h.fail(c, err, "failed to get history")
	}
	return c.JSON(http.StatusOK, ListResponse{Items: entries, Count: len(entries)})
}

// Nfts lists every NFT definition
func (h *Handlers) Nfts(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), listingRounds)
	defer cancel()

	ns, err := nft.LoadAll(ctx, h.API, nil)
	if err != nil {
		return h.fail(c, err, "failed to list nfts")
	}
	items := ns.List()
	return c.JSON(http.StatusOK, ListResponse{Items: items, Count: len(items)})
}

func (h *Handlers) Nft(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 1)
	defer cancel()

	n, err := nft.Load(ctx, h.API, nil, symbolParam(c))
	if err != nil {
		return h.fail(c, err, "failed to get nft")
	}
	return c.JSON(http.StatusOK, n)
}

// NftInstance returns one instance of an NFT by id
func (h *Handlers) NftInstance(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return h.err(c, http.StatusBadRequest, "invalid instance id", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 1)
	defer cancel()

	inst, err := nft.Bind(h.API, nil, symbolParam(c)).GetInstance(ctx, id)
	if err != nil {
		return h.fail(c, err, "failed to get instance")
	}
	if inst == nil {
		return h.err(c, http.StatusNotFound, "instance not found", nil)
	}
	return c.JSON(http.StatusOK, inst)
}
