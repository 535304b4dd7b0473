// ABOUTME: In-memory fake of the credit evaluation backend for tests
// ABOUTME: Serves the HTTP API on httptest with JWT auth, hit counting and failure injection

package apitest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

const timeLayout = "2006-01-02T15:04:05.000Z"

type account struct {
	ID        int
	Username  string
	Email     string
	Hash      []byte
	Role      string
	CreatedAt time.Time
}

type evaluation struct {
	InputID            int
	ResultID           int
	UserID             int
	Income             float64
	Debts              float64
	EmploymentYears    int
	CreditHistoryScore int
	RequestedAmount    float64
	Score              int
	RiskLevel          string
	Recommendation     string
	EvaluatedAt        time.Time
}

type failure struct {
	status  int
	message string
}

// Server is a fake backend. Route keys passed to Fail, Hits and LastHeader
// look like "POST /login" or "PATCH /admin/users/{id}".
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	secret      []byte
	tokenTTL    time.Duration
	omitRole    bool
	accounts    []*account
	evaluations []*evaluation
	nextInput   int
	nextResult  int
	hits        map[string]int
	headers     map[string]http.Header
	failures    map[string]failure
}

// New starts a fake backend that is closed when the test ends
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		secret:     []byte("apitest-" + uuid.NewString()),
		tokenTTL:   time.Hour,
		nextInput:  100,
		nextResult: 500,
		hits:       make(map[string]int),
		headers:    make(map[string]http.Header),
		failures:   make(map[string]failure),
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.record)
	api.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/me", s.authed(s.handleMe)).Methods(http.MethodGet)
	api.HandleFunc("/credit-inputs", s.authed(s.handleSubmit)).Methods(http.MethodPost)
	api.HandleFunc("/credit-inputs", s.authed(s.handleHistory)).Methods(http.MethodGet)
	api.HandleFunc("/credit-results/{id}", s.authed(s.handleResult)).Methods(http.MethodGet)
	api.HandleFunc("/admin/users", s.admin(s.handleUsers)).Methods(http.MethodGet)
	api.HandleFunc("/admin/stats", s.admin(s.handleStats)).Methods(http.MethodGet)
	api.HandleFunc("/admin/users/{id}", s.admin(s.handleUpdateRole)).Methods(http.MethodPatch)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// APIURL is the base URL clients should be configured with
func (s *Server) APIURL() string {
	return s.URL + "/api"
}

// AddUser creates an account directly and returns its id
func (s *Server) AddUser(username, email, password, role string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(username, email, password, role).ID
}

// TokenFor issues a valid token for the account with the given email
func (s *Server) TokenFor(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Email == email {
			token, _ := s.issueLocked(a)
			return token
		}
	}
	return ""
}

// ExpiredTokenFor issues a correctly signed token whose exp is in the past
func (s *Server) ExpiredTokenFor(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Email == email {
			claims := jwt.MapClaims{
				"sub":  strconv.Itoa(a.ID),
				"role": a.Role,
				"exp":  time.Now().Add(-time.Hour).Unix(),
			}
			token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
			return token
		}
	}
	return ""
}

// AddEvaluation stores an evaluation for the user and returns its input id
func (s *Server) AddEvaluation(userID int, income, debts float64, years, history int, requested float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evaluateLocked(userID, income, debts, years, history, requested).InputID
}

// SetOmitRole makes /me leave out the role field
func (s *Server) SetOmitRole(omit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.omitRole = omit
}

// Fail forces the route to answer with status and message. An empty message
// sends a non-JSON body.
func (s *Server) Fail(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, message: message}
}

// Recover removes a failure installed with Fail
func (s *Server) Recover(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Hits returns how many requests reached the route
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// TotalHits returns the number of requests served on any route
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.hits {
		total += n
	}
	return total
}

// LastHeader returns the headers of the most recent request to the route
func (s *Server) LastHeader(route string) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers[route]
}

// UserRole returns the stored role for an account id
func (s *Server) UserRole(id int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.findLocked(id); a != nil {
		return a.Role
	}
	return ""
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				key = r.Method + " " + strings.TrimPrefix(tpl, "/api")
			}
		}

		s.mu.Lock()
		s.hits[key]++
		s.headers[key] = r.Header.Clone()
		f, failing := s.failures[key]
		s.mu.Unlock()

		if failing {
			if f.message == "" {
				w.WriteHeader(f.status)
				fmt.Fprint(w, "upstream failure")
				return
			}
			writeError(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authed(next func(http.ResponseWriter, *http.Request, *account)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := s.authenticate(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next(w, r, a)
	}
}

func (s *Server) admin(next func(http.ResponseWriter, *http.Request, *account)) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request, a *account) {
		if a.Role != "admin" {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next(w, r, a)
	})
}

func (s *Server) authenticate(r *http.Request) (*account, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return nil, errors.New("No token provided")
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errors.New("Invalid token")
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return nil, errors.New("Invalid token")
	}
	id, err := strconv.Atoi(sub)
	if err != nil {
		return nil, errors.New("Invalid token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.findLocked(id)
	if a == nil {
		return nil, errors.New("User not found")
	}
	return a, nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	if req.Role == "" {
		req.Role = "user"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Email == req.Email {
			writeError(w, http.StatusBadRequest, "User already exists")
			return
		}
	}
	a := s.addLocked(req.Username, req.Email, req.Password, req.Role)
	token, err := s.issueLocked(a)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Token generation failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"token": token, "user": userJSON(a, true)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Email != req.Email || bcrypt.CompareHashAndPassword(a.Hash, []byte(req.Password)) != nil {
			continue
		}
		if req.Role != "" && req.Role != a.Role {
			writeError(w, http.StatusUnauthorized, "Invalid credentials for selected role")
			return
		}
		token, err := s.issueLocked(a)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Token generation failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": userJSON(a, true)})
		return
	}
	writeError(w, http.StatusUnauthorized, "Invalid credentials")
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, a *account) {
	s.mu.Lock()
	omit := s.omitRole
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, userJSON(a, !omit))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, a *account) {
	var req struct {
		Income             *float64 `json:"income"`
		Debts              *float64 `json:"debts"`
		EmploymentYears    *int     `json:"employment_years"`
		CreditHistoryScore *int     `json:"credit_history_score"`
		RequestedAmount    *float64 `json:"requested_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Income == nil || req.Debts == nil || req.EmploymentYears == nil ||
		req.CreditHistoryScore == nil || req.RequestedAmount == nil {
		writeError(w, http.StatusBadRequest, "All financial fields are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.evaluateLocked(a.ID, *req.Income, *req.Debts, *req.EmploymentYears, *req.CreditHistoryScore, *req.RequestedAmount)
	body := evaluationJSON(e)
	body["id"] = e.ResultID
	body["credit_input_id"] = e.InputID
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Credit evaluated", "result": body})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, a *account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := []map[string]any{}
	for i := len(s.evaluations) - 1; i >= 0; i-- {
		e := s.evaluations[i]
		if e.UserID != a.ID {
			continue
		}
		item := evaluationJSON(e)
		item["id"] = e.InputID
		history = append(history, item)
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request, a *account) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.evaluations {
		if e.InputID != id {
			continue
		}
		if e.UserID != a.ID && a.Role != "admin" {
			break
		}
		body := evaluationJSON(e)
		body["id"] = e.ResultID
		body["credit_input_id"] = e.InputID
		writeJSON(w, http.StatusOK, body)
		return
	}
	writeError(w, http.StatusNotFound, "Result not found")
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request, _ *account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]map[string]any, 0, len(s.accounts))
	for _, a := range s.accounts {
		users = append(users, userJSON(a, true))
	}
	writeJSON(w, http.StatusOK, users)
}

// handleStats renders counts and averages as strings, the way SQL drivers
// return COUNT and DECIMAL columns.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, _ *account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	counts := map[string]int{}
	var order []string
	for _, e := range s.evaluations {
		total += e.Score
		if _, seen := counts[e.RiskLevel]; !seen {
			order = append(order, e.RiskLevel)
		}
		counts[e.RiskLevel]++
	}
	avg := 0.0
	if len(s.evaluations) > 0 {
		avg = float64(total) / float64(len(s.evaluations))
	}

	distribution := make([]map[string]any, 0, len(order))
	for _, level := range order {
		distribution = append(distribution, map[string]any{
			"risk_level": level,
			"count":      strconv.Itoa(counts[level]),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"totalUsers":       strconv.Itoa(len(s.accounts)),
		"totalEvaluations": strconv.Itoa(len(s.evaluations)),
		"averageScore":     strconv.FormatFloat(avg, 'f', 2, 64),
		"riskDistribution": distribution,
	})
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request, _ *account) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Role != "user" && req.Role != "admin" {
		writeError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.findLocked(id)
	if a == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	a.Role = req.Role
	writeJSON(w, http.StatusOK, userJSON(a, true))
}

func (s *Server) addLocked(username, email, password, role string) *account {
	// MinCost keeps tests fast; the hash is never exposed
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("apitest: hash password: %v", err))
	}
	a := &account{
		ID:        len(s.accounts) + 1,
		Username:  username,
		Email:     email,
		Hash:      hash,
		Role:      role,
		CreatedAt: time.Date(2024, 1, 1+len(s.accounts), 9, 0, 0, 0, time.UTC),
	}
	s.accounts = append(s.accounts, a)
	return a
}

func (s *Server) findLocked(id int) *account {
	for _, a := range s.accounts {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (s *Server) issueLocked(a *account) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  strconv.Itoa(a.ID),
		"role": a.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
		"jti":  uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) evaluateLocked(userID int, income, debts float64, years, history int, requested float64) *evaluation {
	score, risk, recommendation := Score(income, debts, years, history, requested)
	e := &evaluation{
		InputID:            s.nextInput,
		ResultID:           s.nextResult,
		UserID:             userID,
		Income:             income,
		Debts:              debts,
		EmploymentYears:    years,
		CreditHistoryScore: history,
		RequestedAmount:    requested,
		Score:              score,
		RiskLevel:          risk,
		Recommendation:     recommendation,
		EvaluatedAt:        time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(len(s.evaluations)) * time.Hour),
	}
	s.nextInput++
	s.nextResult++
	s.evaluations = append(s.evaluations, e)
	return e
}

// Score is the fake backend's deterministic scoring rule
func Score(income, debts float64, years, history int, requested float64) (int, string, string) {
	dti := 1.0
	if income > 0 {
		dti = math.Min(debts/income, 1)
	}
	score := float64(history)*0.5 + math.Min(float64(years), 10)*2 + (1-dti)*30
	if income > 0 && requested > income*5 {
		score -= 10
	}
	score = math.Max(0, math.Min(100, math.Round(score)))

	switch {
	case score >= 70:
		return int(score), "Low", "Approve the requested amount"
	case score >= 50:
		return int(score), "Medium", "Approve with reduced amount or collateral"
	default:
		return int(score), "High", "Decline the application"
	}
}

func userJSON(a *account, withRole bool) map[string]any {
	u := map[string]any{
		"id":         a.ID,
		"username":   a.Username,
		"email":      a.Email,
		"created_at": a.CreatedAt.Format(timeLayout),
	}
	if withRole {
		u["role"] = a.Role
	}
	return u
}

func evaluationJSON(e *evaluation) map[string]any {
	return map[string]any{
		"credit_score":         e.Score,
		"risk_level":           e.RiskLevel,
		"recommendation":       e.Recommendation,
		"evaluated_at":         e.EvaluatedAt.Format(timeLayout),
		"income":               strconv.FormatFloat(e.Income, 'f', 2, 64),
		"debts":                strconv.FormatFloat(e.Debts, 'f', 2, 64),
		"employment_years":     e.EmploymentYears,
		"credit_history_score": e.CreditHistoryScore,
		"requested_amount":     strconv.FormatFloat(e.RequestedAmount, 'f', 2, 64),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
