package httpserver

import (
	"cmp"
	"crypto/x509/pkix"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ruteri/tinycert-go/api"
	"github.com/ruteri/tinycert-go/cryptoutils"
	"github.com/ruteri/tinycert-go/interfaces"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

var sanKeyPattern = regexp.MustCompile(`^SANs\[(\d+)\]\[([^\]]+)\]$`)

// RequestError provides structured error information for HTTP responses.
// It includes both an HTTP status code and the underlying error.
type RequestError struct {
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func badRequest(format string, args ...any) error {
	return &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf(format, args...)}
}

func notFound(format string, args ...any) error {
	return &RequestError{StatusCode: http.StatusNotFound, Err: fmt.Errorf(format, args...)}
}

func unauthorized(err error) error {
	return &RequestError{StatusCode: http.StatusUnauthorized, Err: err}
}

// apiRequest is a request whose digest has been verified.
type apiRequest struct {
	form    url.Values
	account string
}

type apiFunc func(req *apiRequest) (any, error)

// Handler serves the TinyCert v1 API from memory. Every request body must be
// signed with the configured API key; every call except connect must carry a
// token from a prior connect.
type Handler struct {
	apiKey []byte
	store  *memoryStore
	now    func() time.Time
	log    *slog.Logger
}

func NewHandler(apiKey string, log *slog.Logger) *Handler {
	return &Handler{
		apiKey: []byte(apiKey),
		store:  newMemoryStore(),
		now:    time.Now,
		log:    log,
	}
}

// AddAccount registers an account that can connect with passphrase.
func (h *Handler) AddAccount(email, passphrase string) error {
	hash, err := cryptoutils.HashPassphrase(passphrase)
	if err != nil {
		return fmt.Errorf("could not hash passphrase: %w", err)
	}
	h.store.addAccount(email, hash)
	return nil
}

// Routes returns the API router, to be mounted under /api/v1.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Post("/connect", h.public(h.handleConnect))
	r.Post("/disconnect", h.authenticated(h.handleDisconnect))

	r.Post("/ca/list", h.authenticated(h.handleCAList))
	r.Post("/ca/details", h.authenticated(h.handleCADetails))
	r.Post("/ca/get", h.authenticated(h.handleCAGet))
	r.Post("/ca/delete", h.authenticated(h.handleCADelete))
	r.Post("/ca/new", h.authenticated(h.handleCANew))

	r.Post("/cert/list", h.authenticated(h.handleCertList))
	r.Post("/cert/details", h.authenticated(h.handleCertDetails))
	r.Post("/cert/get", h.authenticated(h.handleCertGet))
	r.Post("/cert/reissue", h.authenticated(h.handleCertReissue))
	r.Post("/cert/status", h.authenticated(h.handleCertStatus))
	r.Post("/cert/new", h.authenticated(h.handleCertNew))

	return r
}

// public verifies the request digest and runs fn.
func (h *Handler) public(fn apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := h.verify(w, r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.respond(w, r, fn, req)
	}
}

// authenticated additionally resolves the session token to its account.
func (h *Handler) authenticated(fn apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := h.verify(w, r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		account, ok := h.store.sessionOwner(req.form.Get("token"))
		if !ok {
			h.writeError(w, r, unauthorized(interfaces.ErrNoSession))
			return
		}
		req.account = account
		h.respond(w, r, fn, req)
	}
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) (*apiRequest, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return nil, badRequest("failed to read request body: %v", err)
	}

	form, err := cryptoutils.VerifyPayload(h.apiKey, string(body))
	if err != nil {
		return nil, unauthorized(err)
	}
	return &apiRequest{form: form}, nil
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, fn apiFunc, req *apiRequest) {
	result, err := fn(req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		status = reqErr.StatusCode
	}

	h.log.Debug("Request failed", "path", r.URL.Path, "status", status, "err", err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func (h *Handler) handleConnect(req *apiRequest) (any, error) {
	email := req.form.Get("email")
	hash, ok := h.store.account(email)
	if !ok || !hash.Verify(req.form.Get("passphrase")) {
		return nil, unauthorized(errors.New("invalid account or passphrase"))
	}

	token := uuid.NewString()
	h.store.openSession(token, email)
	h.log.Info("Session opened", "account", email)
	return api.ConnectResponse{Token: token}, nil
}

func (h *Handler) handleDisconnect(req *apiRequest) (any, error) {
	h.store.closeSession(req.form.Get("token"))
	h.log.Info("Session closed", "account", req.account)
	return struct{}{}, nil
}

func (h *Handler) handleCAList(req *apiRequest) (any, error) {
	return h.store.listCAs(req.account), nil
}

func (h *Handler) handleCADetails(req *apiRequest) (any, error) {
	ca, err := h.lookupCA(req)
	if err != nil {
		return nil, err
	}
	return ca.details, nil
}

func (h *Handler) handleCAGet(req *apiRequest) (any, error) {
	ca, err := h.lookupCA(req)
	if err != nil {
		return nil, err
	}
	if what := req.form.Get("what"); what != string(interfaces.DataCert) {
		return nil, badRequest("unsupported CA data type: %q", what)
	}
	return api.PEMResponse{PEM: string(ca.issued.CertPEM)}, nil
}

func (h *Handler) handleCADelete(req *apiRequest) (any, error) {
	id, err := formInt(req.form, "ca_id")
	if err != nil {
		return nil, err
	}
	if !h.store.deleteCA(req.account, interfaces.CAID(id)) {
		return nil, notFound("CA %d not found", id)
	}
	h.log.Info("CA deleted", "account", req.account, "ca_id", id)
	return struct{}{}, nil
}

func (h *Handler) handleCANew(req *apiRequest) (any, error) {
	caReq := interfaces.CARequest{
		C:          req.form.Get("C"),
		O:          req.form.Get("O"),
		L:          req.form.Get("L"),
		ST:         req.form.Get("ST"),
		HashMethod: req.form.Get("hash_method"),
	}
	if err := caReq.Validate(); err != nil {
		return nil, badRequest("%v", err)
	}

	commonName := caReq.O + " CA"
	issued, err := cryptoutils.NewCA(pkix.Name{
		Country:      nonEmpty(caReq.C),
		Organization: nonEmpty(caReq.O),
		Locality:     nonEmpty(caReq.L),
		Province:     nonEmpty(caReq.ST),
		CommonName:   commonName,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create CA: %w", err)
	}

	id := h.store.addCA(&caRecord{
		owner: req.account,
		details: api.CADetails{
			C:       caReq.C,
			ST:      caReq.ST,
			L:       caReq.L,
			O:       caReq.O,
			CN:      commonName,
			E:       req.account,
			HashAlg: strings.ToUpper(caReq.HashMethod),
		},
		issued: issued,
	})
	h.log.Info("CA created", "account", req.account, "ca_id", id)
	return api.CreateCAResponse{CAID: id}, nil
}

func (h *Handler) handleCertList(req *apiRequest) (any, error) {
	ca, err := h.lookupCA(req)
	if err != nil {
		return nil, err
	}

	states := interfaces.AllCertStates
	if req.form.Has("what") {
		raw, err := formInt(req.form, "what")
		if err != nil {
			return nil, err
		}
		states = interfaces.CertState(raw)
	}
	return h.store.listCerts(req.account, ca.details.ID, states, h.now()), nil
}

func (h *Handler) handleCertDetails(req *apiRequest) (any, error) {
	id, cert, err := h.lookupCert(req)
	if err != nil {
		return nil, err
	}
	ca, ok := h.store.ca(req.account, cert.caID)
	if !ok {
		return nil, notFound("CA %d not found", cert.caID)
	}
	return cert.details(id, ca.details.HashAlg), nil
}

func (h *Handler) handleCertGet(req *apiRequest) (any, error) {
	_, cert, err := h.lookupCert(req)
	if err != nil {
		return nil, err
	}

	dataType := interfaces.DataType(req.form.Get("what"))
	if err := dataType.Validate(); err != nil {
		return nil, badRequest("%v", err)
	}

	switch dataType {
	case interfaces.DataCert:
		return api.PEMResponse{PEM: string(cert.issued.CertPEM)}, nil
	case interfaces.DataChain:
		ca, ok := h.store.ca(req.account, cert.caID)
		if !ok {
			return nil, notFound("CA %d not found", cert.caID)
		}
		return api.PEMResponse{PEM: string(cert.issued.CertPEM) + string(ca.issued.CertPEM)}, nil
	case interfaces.DataCSR:
		return api.PEMResponse{PEM: string(cert.issued.CSRPEM)}, nil
	case interfaces.DataKeyDecrypted:
		return api.PEMResponse{PEM: string(cert.issued.KeyPEM)}, nil
	default:
		return nil, badRequest("data type %q is not supported by this server", dataType)
	}
}

func (h *Handler) handleCertReissue(req *apiRequest) (any, error) {
	oldID, cert, err := h.lookupCert(req)
	if err != nil {
		return nil, err
	}
	id, err := h.issue(req.account, cert.caID, cert.request)
	if err != nil {
		return nil, err
	}
	h.log.Info("Certificate reissued", "account", req.account, "cert_id", id, "previous_cert_id", oldID)
	return api.CreateCertResponse{CertID: id}, nil
}

func (h *Handler) handleCertStatus(req *apiRequest) (any, error) {
	id, err := formInt(req.form, "cert_id")
	if err != nil {
		return nil, err
	}

	status := interfaces.CertStatus(req.form.Get("status"))
	if err := status.Validate(); err != nil {
		return nil, badRequest("%v", err)
	}

	if !h.store.setStatus(req.account, interfaces.CertID(id), status) {
		return nil, notFound("certificate %d not found", id)
	}
	return struct{}{}, nil
}

func (h *Handler) handleCertNew(req *apiRequest) (any, error) {
	ca, err := h.lookupCA(req)
	if err != nil {
		return nil, err
	}

	sans, err := parseSANs(req.form)
	if err != nil {
		return nil, err
	}

	certReq := interfaces.CertRequest{
		C:    req.form.Get("C"),
		CN:   req.form.Get("CN"),
		O:    req.form.Get("O"),
		L:    req.form.Get("L"),
		OU:   req.form.Get("OU"),
		ST:   req.form.Get("ST"),
		SANs: sans,
	}
	if err := certReq.Validate(); err != nil {
		return nil, badRequest("%v", err)
	}

	id, err := h.issue(req.account, ca.details.ID, certReq)
	if err != nil {
		return nil, err
	}
	h.log.Info("Certificate created", "account", req.account, "ca_id", ca.details.ID, "cert_id", id)
	return api.CreateCertResponse{CertID: id}, nil
}

func (h *Handler) issue(account string, caID interfaces.CAID, certReq interfaces.CertRequest) (interfaces.CertID, error) {
	ca, ok := h.store.ca(account, caID)
	if !ok {
		return 0, notFound("CA %d not found", caID)
	}

	record := &certRecord{
		owner:   account,
		caID:    caID,
		request: certReq,
		status:  interfaces.StatusGood,
	}
	issued, err := cryptoutils.IssueCertificate(ca.issued, record.subject(), certReq.SANs)
	if err != nil {
		return 0, badRequest("could not issue certificate: %v", err)
	}
	record.issued = issued

	return h.store.addCert(record), nil
}

func (h *Handler) lookupCA(req *apiRequest) (*caRecord, error) {
	id, err := formInt(req.form, "ca_id")
	if err != nil {
		return nil, err
	}
	ca, ok := h.store.ca(req.account, interfaces.CAID(id))
	if !ok {
		return nil, notFound("CA %d not found", id)
	}
	return ca, nil
}

func (h *Handler) lookupCert(req *apiRequest) (interfaces.CertID, certRecord, error) {
	raw, err := formInt(req.form, "cert_id")
	if err != nil {
		return 0, certRecord{}, err
	}
	id := interfaces.CertID(raw)
	cert, ok := h.store.cert(req.account, id)
	if !ok {
		return 0, certRecord{}, notFound("certificate %d not found", id)
	}
	return id, cert, nil
}

func formInt(form url.Values, key string) (int64, error) {
	raw := form.Get(key)
	if raw == "" {
		return 0, badRequest("missing %s", key)
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, badRequest("invalid %s: %q", key, raw)
	}
	return value, nil
}

// parseSANs collects SANs[i][TYPE]=value form fields in index order.
func parseSANs(form url.Values) ([]interfaces.SAN, error) {
	type indexed struct {
		index int
		san   interfaces.SAN
	}

	var entries []indexed
	for key, values := range form {
		match := sanKeyPattern.FindStringSubmatch(key)
		if match == nil {
			continue
		}
		index, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, badRequest("invalid SAN index in %q", key)
		}
		san, err := interfaces.ParseSAN(match[2] + ":" + values[0])
		if err != nil {
			return nil, badRequest("%v", err)
		}
		entries = append(entries, indexed{index: index, san: san})
	}

	slices.SortFunc(entries, func(a, b indexed) int { return cmp.Compare(a.index, b.index) })

	sans := make([]interfaces.SAN, 0, len(entries))
	for _, entry := range entries {
		sans = append(sans, entry.san)
	}
	return sans, nil
}
