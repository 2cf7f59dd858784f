package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/trace"

	"posterminal/pkg/catalog"
	"posterminal/pkg/errs"
	"posterminal/pkg/logger"
	"posterminal/pkg/metrics"
	"posterminal/pkg/otel"
	"posterminal/pkg/terminal"
)

type server struct {
	session         *terminal.Session
	log             *logger.Logger
	tracer          trace.Tracer
	reverseProxyURL string
	now             func() time.Time
}

func (s *server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.traceMiddleware)
	r.Use(metrics.Middleware)

	r.HandleFunc("/reverse-proxy-url", s.reverseProxyURLHandler).Methods(http.MethodGet)

	r.HandleFunc("/catalog", s.catalogHandler).Methods(http.MethodGet)
	r.HandleFunc("/catalog/keyword", s.keywordHandler).Methods(http.MethodPut)
	r.HandleFunc("/catalog/reload", s.reloadCatalogHandler).Methods(http.MethodPost)
	r.HandleFunc("/catalog/sample", s.sampleCatalogHandler).Methods(http.MethodPost)
	r.HandleFunc("/catalog/blank", s.blankCatalogHandler).Methods(http.MethodPost)

	r.HandleFunc("/session", s.sessionHandler).Methods(http.MethodGet)
	r.HandleFunc("/cart/items", s.addItemHandler).Methods(http.MethodPost)
	r.HandleFunc("/cart/items/{type:[0-9]+}", s.adjustItemHandler).Methods(http.MethodPatch)
	r.HandleFunc("/cart/products", s.addProductHandler).Methods(http.MethodPost)
	r.HandleFunc("/cart", s.clearHandler).Methods(http.MethodDelete)
	r.HandleFunc("/payment/cash", s.setCashHandler).Methods(http.MethodPut)
	r.HandleFunc("/payment/cash", s.addCashHandler).Methods(http.MethodPost)

	r.HandleFunc("/checkout", s.checkoutHandler).Methods(http.MethodPost)
	r.HandleFunc("/receipt/print", s.printHandler).Methods(http.MethodPost)
	r.HandleFunc("/receipt/close", s.closeReceiptHandler).Methods(http.MethodPost)

	r.HandleFunc("/fulfillment-orders", s.fulfillmentOrdersHandler).Methods(http.MethodGet)
	r.HandleFunc("/sales", s.salesHandler).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)
	return r
}

type urlResponse struct {
	URL string `json:"url"`
}

// reverseProxyURLHandler tells a UI where the order API lives.
// @Summary Order API location
// @Produce json
// @Success 200 {object} urlResponse
// @Router /reverse-proxy-url [get]
func (s *server) reverseProxyURLHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, urlResponse{URL: s.reverseProxyURL})
}

// catalogHandler lists the catalog. A keyword query filters this response
// only; without one the session keyword applies.
// @Summary List catalog
// @Produce json
// @Param keyword query string false "Search keyword"
// @Success 200 {array} catalog.Product
// @Router /catalog [get]
func (s *server) catalogHandler(w http.ResponseWriter, r *http.Request) {
	_, span := otel.AddSpan(r.Context(), "catalogHandler")
	defer span.End()

	if keyword, ok := r.URL.Query()["keyword"]; ok {
		writeJSON(w, http.StatusOK, nonNil(catalog.Filter(s.session.Catalog(), keyword[0])))
		return
	}
	writeJSON(w, http.StatusOK, nonNil(s.session.FilteredCatalog()))
}

type keywordRequest struct {
	Keyword *string `json:"keyword"`
}

// keywordHandler sets the session search keyword.
// @Summary Set search keyword
// @Accept json
// @Produce json
// @Param keyword body keywordRequest true "Keyword"
// @Success 200 {object} terminal.Snapshot
// @Failure 400 {object} errorResponse
// @Router /catalog/keyword [put]
func (s *server) keywordHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "keywordHandler")
	defer span.End()

	var req keywordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Keyword == nil {
		http.Error(w, "keyword is required", http.StatusBadRequest)
		return
	}
	if err := s.session.SetKeyword(ctx, *req.Keyword); err != nil {
		s.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

type reloadResponse struct {
	Applied  bool              `json:"applied"`
	Products []catalog.Product `json:"products"`
}

// reloadCatalogHandler fetches the catalog from the order API.
// @Summary Reload catalog
// @Produce json
// @Success 200 {object} reloadResponse
// @Failure 502 {object} errorResponse
// @Router /catalog/reload [post]
func (s *server) reloadCatalogHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "reloadCatalogHandler")
	defer span.End()

	applied, err := s.session.LoadCatalog(ctx)
	if err != nil {
		s.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, reloadResponse{Applied: applied, Products: nonNil(s.session.Catalog())})
}

// sampleCatalogHandler stores sample products as the local catalog. An empty
// body uses the order API item types.
// @Summary Start with sample data
// @Accept json
// @Produce json
// @Param products body []catalog.Product false "Products"
// @Success 200 {array} catalog.Product
// @Failure 409 {object} errorResponse
// @Router /catalog/sample [post]
func (s *server) sampleCatalogHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "sampleCatalogHandler")
	defer span.End()

	var products []catalog.Product
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&products); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	saved, err := s.session.StartWithSampleData(ctx, products)
	if err != nil {
		s.writeError(w, r, err, http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// blankCatalogHandler starts with an empty catalog.
// @Summary Start blank
// @Success 204
// @Failure 409 {object} errorResponse
// @Router /catalog/blank [post]
func (s *server) blankCatalogHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "blankCatalogHandler")
	defer span.End()

	if err := s.session.StartBlank(ctx); err != nil {
		s.writeError(w, r, err, http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sessionHandler returns the session snapshot.
// @Summary Session state
// @Produce json
// @Success 200 {object} terminal.Snapshot
// @Router /session [get]
func (s *server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

type addItemRequest struct {
	Type *int `json:"type"`
}

// addItemHandler adds one unit of a catalog product to the cart.
// @Summary Add to cart
// @Accept json
// @Produce json
// @Param item body addItemRequest true "Product type"
// @Success 200 {object} terminal.Snapshot
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /cart/items [post]
func (s *server) addItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "addItemHandler")
	defer span.End()

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Type == nil {
		http.Error(w, "type is required", http.StatusBadRequest)
		return
	}
	if err := s.session.AddToCart(ctx, *req.Type); err != nil {
		s.writeError(w, r, err, http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// addProductHandler adds one unit of a product that is not in the catalog.
// @Summary Add product to cart
// @Accept json
// @Produce json
// @Param product body catalog.Product true "Product"
// @Success 200 {object} terminal.Snapshot
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /cart/products [post]
func (s *server) addProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "addProductHandler")
	defer span.End()

	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := catalog.Validate(p); err != nil {
		s.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := s.session.AddProduct(ctx, p); err != nil {
		s.writeError(w, r, err, http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

type adjustRequest struct {
	Delta int `json:"delta"`
}

// adjustItemHandler changes the quantity of a cart line.
// @Summary Adjust quantity
// @Accept json
// @Produce json
// @Param type path int true "Product type"
// @Param delta body adjustRequest true "Quantity change"
// @Success 200 {object} terminal.Snapshot
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /cart/items/{type} [patch]
func (s *server) adjustItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "adjustItemHandler")
	defer span.End()

	productType, err := strconv.Atoi(mux.Vars(r)["type"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.session.AdjustQuantity(ctx, productType, req.Delta); err != nil {
		s.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// clearHandler empties the cart and resets cash and receipt.
// @Summary Clear
// @Produce json
// @Success 200 {object} terminal.Snapshot
// @Router /cart [delete]
func (s *server) clearHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "clearHandler")
	defer span.End()

	if err := s.session.Clear(ctx); err != nil {
		s.writeError(w, r, err, http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

type cashRequest struct {
	Amount *float64 `json:"amount,omitempty"`
	Text   *string  `json:"text,omitempty"`
}

// setCashHandler replaces the tendered cash with a number or operator text.
// @Summary Set cash
// @Accept json
// @Produce json
// @Param cash body cashRequest true "Amount or text"
// @Success 200 {object} terminal.Snapshot
// @Failure 400 {object} errorResponse
// @Router /payment/cash [put]
func (s *server) setCashHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "setCashHandler")
	defer span.End()

	var req cashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var err error
	switch {
	case req.Amount != nil:
		err = s.session.SetCash(ctx, *req.Amount)
	case req.Text != nil:
		err = s.session.SetCashText(ctx, *req.Text)
	default:
		http.Error(w, "amount or text is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		s.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// addCashHandler adds a quick-tender amount to the cash.
// @Summary Quick tender
// @Accept json
// @Produce json
// @Param cash body cashRequest true "Amount"
// @Success 200 {object} terminal.Snapshot
// @Failure 400 {object} errorResponse
// @Router /payment/cash [post]
func (s *server) addCashHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "addCashHandler")
	defer span.End()

	var req cashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Amount == nil {
		http.Error(w, "amount is required", http.StatusBadRequest)
		return
	}
	if err := s.session.AddCash(ctx, *req.Amount); err != nil {
		s.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// checkoutHandler submits the cart as a fulfillment order.
// @Summary Submit order
// @Produce json
// @Success 201 {object} terminal.Submission
// @Failure 409 {object} errorResponse
// @Failure 502 {object} errorResponse
// @Router /checkout [post]
func (s *server) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "checkoutHandler")
	defer span.End()

	sub, err := s.session.Submit(ctx, s.now())
	if err != nil {
		s.writeError(w, r, err, http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// printHandler prints the submitted receipt and starts a new transaction.
// @Summary Print receipt and proceed
// @Produce json
// @Success 200 {object} sale.Sale
// @Failure 409 {object} errorResponse
// @Router /receipt/print [post]
func (s *server) printHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "printHandler")
	defer span.End()

	rec, err := s.session.PrintAndProceed(ctx)
	if err != nil {
		s.writeError(w, r, err, http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// closeReceiptHandler hides the receipt without clearing the transaction.
// @Summary Close receipt
// @Produce json
// @Success 200 {object} terminal.Snapshot
// @Router /receipt/close [post]
func (s *server) closeReceiptHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "closeReceiptHandler")
	defer span.End()

	if err := s.session.CloseReceipt(ctx); err != nil {
		s.writeError(w, r, err, http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// fulfillmentOrdersHandler lists the orders known to the counter service.
// @Summary Fulfillment orders
// @Produce json
// @Success 200 {array} order.Order
// @Failure 502 {object} errorResponse
// @Router /fulfillment-orders [get]
func (s *server) fulfillmentOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "fulfillmentOrdersHandler")
	defer span.End()

	orders, err := s.session.FulfillmentOrders(ctx)
	if err != nil {
		s.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(orders))
}

// salesHandler lists the recorded sales.
// @Summary Sales
// @Produce json
// @Success 200 {array} sale.Sale
// @Router /sales [get]
func (s *server) salesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "salesHandler")
	defer span.End()

	sales, err := s.session.Sales(ctx)
	if err != nil {
		s.writeError(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(sales))
}

func (s *server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.InjectTracing(r.Context(), s.tracer)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps error kinds to status codes. invalid is the status used
// for errs.ErrValidation, which is a conflict for state-changing commands.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error, invalid int) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrValidation):
		status = invalid
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrNetwork):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		s.log.Error(r.Context(), "request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
