package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/fazpramim/marketplace/internal/api/handler"
	"github.com/fazpramim/marketplace/internal/core/service"
	"github.com/fazpramim/marketplace/internal/infrastructure/catalog"
	"github.com/fazpramim/marketplace/internal/infrastructure/db/memory"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	log := zerolog.Nop()

	source, err := catalog.NewStaticSource()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	search, err := service.NewSearchService(context.Background(), source, log)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	runner := service.NewFormRunner(service.NewFormRegistry(time.Hour), service.NewNavigationLog(), time.Second, log)
	directory := service.NewAccountService(memory.NewAccountRepository())
	sessions := service.NewSessionRegistry(memory.NewKVStore(), directory, log)
	chat := service.NewChatService(nil, time.Second, log)
	sessions.OnLogout(runner.CloseOwner)
	sessions.OnLogout(chat.CloseSession)

	return NewRouter(Dependencies{
		Log:           log,
		JWTSecret:     testSecret,
		AuthRateLimit: 1000,
		Auth:          service.NewAuthService(sessions, directory, service.NewTokenIssuer(testSecret, time.Hour), runner, 0, log),
		Sessions:      sessions,
		Runner:        runner,
		Search:        search,
		Requests:      service.NewRequestService(memory.NewRequestRepository(), nil, runner, log),
		Chat:          chat,
		Profiles:      service.NewProfileService(runner),
		Readiness:     map[string]handler.Check{},
		Registerer:    prometheus.NewRegistry(),
	})
}

type call struct {
	method   string
	path     string
	body     any
	token    string
	instance string
}

func do(t *testing.T, e *echo.Echo, c call) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var body *bytes.Reader
	if c.body != nil {
		raw, err := json.Marshal(c.body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(c.method, c.path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if c.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+c.token)
	}
	if c.instance != "" {
		req.Header.Set(handler.HeaderFormInstance, c.instance)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp map[string]any
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	}
	return rec, resp
}

func clientRegistration(email string) map[string]string {
	return map[string]string{
		"nomeCompleto":   "Ana Costa",
		"email":          email,
		"telefone":       "(21) 98888-7777",
		"senha":          "Abcdef12",
		"confirmarSenha": "Abcdef12",
	}
}

func login(t *testing.T, e *echo.Echo, email string) string {
	t.Helper()
	rec, resp := do(t, e, call{method: http.MethodPost, path: "/auth/login", body: map[string]string{
		"email": email, "senha": "Abcdef12",
	}})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", email, rec.Code, rec.Body.String())
	}
	token, _ := resp["token"].(string)
	if token == "" {
		t.Fatalf("login returned no token: %v", resp)
	}
	return token
}

func TestRouter_ClientJourney(t *testing.T) {
	e := newTestServer(t)

	rec, resp := do(t, e, call{method: http.MethodPost, path: "/auth/register/client", body: clientRegistration("ana@email.com")})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp["redirect"] != service.RouteLogin || resp["message"] != "Cadastro realizado com sucesso! Faça login para continuar." {
		t.Fatalf("unexpected registration response: %v", resp)
	}

	rec, resp = do(t, e, call{method: http.MethodPost, path: "/auth/login", instance: "tab-1", body: map[string]string{
		"email": "ANA@email.com", "senha": "Abcdef12",
	}})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	token := resp["token"].(string)
	if rec.Header().Get(handler.HeaderFormInstance) != "tab-1" {
		t.Fatalf("form instance not echoed back")
	}

	rec, resp = do(t, e, call{method: http.MethodGet, path: "/v1/forms/navigation", instance: "tab-1"})
	if rec.Code != http.StatusOK || resp["redirect"] != service.RouteHome {
		t.Fatalf("expected pending home navigation, got %d %v", rec.Code, resp)
	}

	rec, resp = do(t, e, call{method: http.MethodGet, path: "/auth/me", token: token})
	if rec.Code != http.StatusOK || resp["email"] != "ana@email.com" || resp["role"] != "client" {
		t.Fatalf("me: %d %v", rec.Code, resp)
	}

	rec, resp = do(t, e, call{method: http.MethodPost, path: "/v1/providers/1/requests", token: token, body: map[string]string{
		"descricao":     "Trocar a fiação da cozinha",
		"horario":       "2030-05-10T14:00",
		"valorProposto": "150,00",
	}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("request: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp["redirect"] != "/chat/1" {
		t.Fatalf("unexpected redirect: %v", resp)
	}

	rec, resp = do(t, e, call{method: http.MethodGet, path: "/v1/session/navigation", token: token})
	if rec.Code != http.StatusOK || resp["redirect"] != "/chat/1" {
		t.Fatalf("session navigation: %d %v", rec.Code, resp)
	}
	rec, _ = do(t, e, call{method: http.MethodGet, path: "/v1/session/navigation", token: token})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("navigation should be consumed, got %d", rec.Code)
	}

	rec, resp = do(t, e, call{method: http.MethodGet, path: "/v1/requests", token: token})
	if rec.Code != http.StatusOK || len(resp["requests"].([]any)) != 1 {
		t.Fatalf("list requests: %d %v", rec.Code, resp)
	}

	rec, resp = do(t, e, call{method: http.MethodGet, path: "/v1/chat/1", token: token})
	if rec.Code != http.StatusOK {
		t.Fatalf("chat: expected 200, got %d", rec.Code)
	}
	msgs := resp["messages"].([]any)
	if len(msgs) != 1 || msgs[0].(map[string]any)["text"] != service.ProviderGreeting {
		t.Fatalf("expected the greeting, got %v", msgs)
	}

	rec, _ = do(t, e, call{method: http.MethodPost, path: "/v1/chat/1/messages", token: token, body: map[string]string{"text": "  "}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("blank message: expected 422, got %d", rec.Code)
	}
	rec, resp = do(t, e, call{method: http.MethodPost, path: "/v1/chat/1/messages", token: token, body: map[string]string{"text": "Pode vir amanhã?"}})
	if rec.Code != http.StatusCreated || resp["sender"] != "client" {
		t.Fatalf("send: %d %v", rec.Code, resp)
	}

	rec, _ = do(t, e, call{method: http.MethodGet, path: "/v1/profile", token: token})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("client on provider route: expected 403, got %d", rec.Code)
	}

	rec, _ = do(t, e, call{method: http.MethodPost, path: "/auth/logout", token: token})
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rec.Code)
	}
	rec, _ = do(t, e, call{method: http.MethodGet, path: "/auth/me", token: token})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("token of a logged-out session: expected 401, got %d", rec.Code)
	}
}

func TestRouter_RegistrationErrors(t *testing.T) {
	e := newTestServer(t)

	invalid := clientRegistration("ana@email.com")
	invalid["nomeCompleto"] = "A"
	rec, resp := do(t, e, call{method: http.MethodPost, path: "/auth/register/client", body: invalid})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	fields := resp["fields"].(map[string]any)
	if len(fields) != 1 || fields["nomeCompleto"] != "Nome deve ter pelo menos 3 caracteres" {
		t.Fatalf("unexpected fields: %v", fields)
	}

	if rec, _ := do(t, e, call{method: http.MethodPost, path: "/auth/register/client", body: clientRegistration("ana@email.com")}); rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rec.Code)
	}
	rec, resp = do(t, e, call{method: http.MethodPost, path: "/auth/register/client", body: clientRegistration("ana@email.com")})
	if rec.Code != http.StatusConflict || resp["error"] != service.MsgEmailTaken {
		t.Fatalf("duplicate: %d %v", rec.Code, resp)
	}

	rec, resp = do(t, e, call{method: http.MethodPost, path: "/auth/login", body: map[string]string{"email": "ana@email.com", "senha": "Wrong123"}})
	if rec.Code != http.StatusUnauthorized || resp["error"] != service.MsgInvalidCredentials {
		t.Fatalf("bad login: %d %v", rec.Code, resp)
	}
}

func multipartRegistration(t *testing.T, withDocument bool, extra ...string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"nomeCompleto":        "Carlos Silva",
		"email":               "carlos@email.com",
		"telefone":            "(11) 99999-9999",
		"endereco":            "Rua das Flores, 123 - São Paulo",
		"qualificacaoTecnica": "Eletricista com certificado NR-10 e 10 anos de experiência",
		"senha":               "Abcdef12",
		"confirmarSenha":      "Abcdef12",
	}
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	for i := 0; i+1 < len(extra); i += 2 {
		_ = w.WriteField(extra[i], extra[i+1])
	}
	if withDocument {
		fw, err := w.CreateFormFile("documento", "rg.pdf")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		_, _ = fw.Write([]byte("%PDF-1.4"))
	}
	_ = w.Close()
	return &buf, w.FormDataContentType()
}

func TestRouter_ProviderJourney(t *testing.T) {
	e := newTestServer(t)

	body, contentType := multipartRegistration(t, false)
	req := httptest.NewRequest(http.MethodPost, "/auth/register/provider", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "documento") {
		t.Fatalf("missing document: %d %s", rec.Code, rec.Body.String())
	}

	body, contentType = multipartRegistration(t, false, "documento", "fake.pdf")
	req = httptest.NewRequest(http.MethodPost, "/auth/register/provider", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "documento") {
		t.Fatalf("document as a text field: %d %s", rec.Code, rec.Body.String())
	}

	body, contentType = multipartRegistration(t, true)
	req = httptest.NewRequest(http.MethodPost, "/auth/register/provider", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register provider: %d %s", rec.Code, rec.Body.String())
	}

	token := login(t, e, "carlos@email.com")

	rec, resp := do(t, e, call{method: http.MethodPut, path: "/v1/profile", token: token, body: map[string]string{
		"nome":            "Carlos Silva",
		"email":           "carlos@email.com",
		"telefone":        "(11) 99999-9999",
		"descricao":       "Eletricista residencial com foco em segurança",
		"cidade":          "São Paulo",
		"estado":          "sp",
		"disponibilidade": "Segunda a sexta, 8h às 18h",
	}})
	if rec.Code != http.StatusOK {
		t.Fatalf("update profile: %d %s", rec.Code, rec.Body.String())
	}
	if resp["profile"].(map[string]any)["state"] != "SP" {
		t.Fatalf("unexpected profile: %v", resp)
	}

	rec, resp = do(t, e, call{method: http.MethodPost, path: "/v1/profile/services", token: token, body: map[string]string{
		"nome": "Reparo de Emergência", "descricao": "Atendimento 24 horas", "preco": "R$ 150/hora",
	}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add service: %d %s", rec.Code, rec.Body.String())
	}
	id := resp["service"].(map[string]any)["id"].(string)

	if rec, _ := do(t, e, call{method: http.MethodDelete, path: "/v1/profile/services/" + id, token: token}); rec.Code != http.StatusNoContent {
		t.Fatalf("remove service: expected 204, got %d", rec.Code)
	}
	if rec, _ := do(t, e, call{method: http.MethodDelete, path: "/v1/profile/services/" + id, token: token}); rec.Code != http.StatusNotFound {
		t.Fatalf("remove twice: expected 404, got %d", rec.Code)
	}

	if rec, _ := do(t, e, call{method: http.MethodGet, path: "/v1/chat/1", token: token}); rec.Code != http.StatusForbidden {
		t.Fatalf("provider on client route: expected 403, got %d", rec.Code)
	}
}

func TestRouter_Search(t *testing.T) {
	e := newTestServer(t)

	rec, resp := do(t, e, call{method: http.MethodGet, path: "/v1/providers?q=ana"})
	if rec.Code != http.StatusOK || resp["total"] != float64(3) {
		t.Fatalf("search: %d %v", rec.Code, resp)
	}
	rec, resp = do(t, e, call{method: http.MethodGet, path: "/v1/providers"})
	if rec.Code != http.StatusOK || resp["total"] != float64(5) {
		t.Fatalf("blank search: %d %v", rec.Code, resp)
	}
	rec, _ = do(t, e, call{method: http.MethodGet, path: "/v1/providers?q=" + strings.Repeat("x", 101)})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("long query: expected 422, got %d", rec.Code)
	}

	rec, resp = do(t, e, call{method: http.MethodGet, path: "/v1/providers/1"})
	if rec.Code != http.StatusOK || resp["phone"] != "(11) 99999-9999" {
		t.Fatalf("details: %d %v", rec.Code, resp)
	}
	rec, resp = do(t, e, call{method: http.MethodGet, path: "/v1/providers/99"})
	if rec.Code != http.StatusNotFound || resp["error"] != "Prestador não encontrado" {
		t.Fatalf("unknown provider: %d %v", rec.Code, resp)
	}
}

func TestRouter_ValidateForm(t *testing.T) {
	e := newTestServer(t)

	rec, resp := do(t, e, call{method: http.MethodPost, path: "/v1/forms/client_registration/validate?field=telefone", body: map[string]string{
		"telefone": "123",
	}})
	if rec.Code != http.StatusOK || resp["valid"] != false {
		t.Fatalf("validate field: %d %v", rec.Code, resp)
	}
	if errs := resp["errors"].(map[string]any); len(errs) != 1 || errs["telefone"] != "Telefone inválido" {
		t.Fatalf("unexpected errors: %v", errs)
	}

	rec, resp = do(t, e, call{method: http.MethodPost, path: "/v1/forms/client_registration/validate", body: clientRegistration("ana@email.com")})
	if rec.Code != http.StatusOK || resp["valid"] != true {
		t.Fatalf("validate form: %d %v", rec.Code, resp)
	}
	if strength := resp["strength"].(map[string]any); strength["label"] != "Forte" {
		t.Fatalf("unexpected strength: %v", strength)
	}

	if rec, _ := do(t, e, call{method: http.MethodPost, path: "/v1/forms/unknown/validate", body: map[string]string{}}); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown form: expected 404, got %d", rec.Code)
	}
}

func TestRouter_FormStateHidesPassword(t *testing.T) {
	e := newTestServer(t)

	rec, _ := do(t, e, call{method: http.MethodPost, path: "/auth/login", instance: "tab-9", body: map[string]string{
		"email": "nobody@email.com", "senha": "S3cretPass",
	}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login: expected 401, got %d", rec.Code)
	}

	rec, resp := do(t, e, call{method: http.MethodGet, path: "/v1/forms/login/state", instance: "tab-9"})
	if rec.Code != http.StatusOK || resp["state"] != "failed" {
		t.Fatalf("state: %d %v", rec.Code, resp)
	}
	values := resp["values"].(map[string]any)
	if values["email"] != "nobody@email.com" {
		t.Fatalf("email should be kept: %v", values)
	}
	if strings.Contains(rec.Body.String(), "S3cretPass") {
		t.Fatalf("password leaked: %s", rec.Body.String())
	}
}

func TestRouter_Health(t *testing.T) {
	e := newTestServer(t)

	if rec, _ := do(t, e, call{method: http.MethodGet, path: "/health"}); rec.Code != http.StatusOK {
		t.Fatalf("liveness: expected 200, got %d", rec.Code)
	}
	rec, resp := do(t, e, call{method: http.MethodGet, path: "/health/ready"})
	if rec.Code != http.StatusOK || resp["status"] != "ok" {
		t.Fatalf("readiness: %d %v", rec.Code, resp)
	}
}
