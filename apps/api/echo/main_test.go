package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/appointment"
	"github.com/trezcool/ratiba/core/message"
	"github.com/trezcool/ratiba/core/user"
	emailsvc "github.com/trezcool/ratiba/services/email"
	"github.com/trezcool/ratiba/storage/database"
	"github.com/trezcool/ratiba/storage/revocation"
	"github.com/trezcool/ratiba/tests"
)

type testApp struct {
	*Server
	stores  *database.Stores
	mailSvc *emailsvc.ConsoleService
}

// setup builds a server over a fresh in-memory store.
func setup(t *testing.T) *testApp {
	conf := testutil.NewConfig()
	logger := testutil.NewLogger(conf)

	// set up DB & repos
	stores := database.OpenMemory()
	t.Cleanup(func() { _ = stores.Close() })

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	// set up server
	srv := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		UserSvc:        user.NewService(stores.Users, mailSvc, logger),
		AppointmentSvc: appointment.NewService(stores.Appointments, stores.Users, mailSvc, logger),
		MessageSvc:     message.NewService(stores.Messages, stores.Users),
		Revoker:        revocation.NewMemoryRevoker(),
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return &testApp{Server: srv, stores: stores, mailSvc: mailSvc}
}

var (
	errMissingToken = httpError{Message: "missing or malformed jwt"}
	errBadToken     = httpError{Message: "invalid or expired jwt"}
)

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte // not checked when nil
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

// do sends one request through the whole middleware stack.
func (app *testApp) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	app.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) runTests(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			checkCodeAndData(t, tt, app.do(method, tt.path, tt.token, tt.body))
		})
	}
}

func getToken(t *testing.T, app *testApp, usr user.Identity) string {
	token, err := app.GenerateToken(usr)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj(): %v", err)
	}
	return data
}

func unmarshalBody(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarshalBody(): %v; body %s", err, rec.Body.String())
	}
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "body: %s", rec.Body.String())
	if tt.wantData != nil {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
}

func party(usr user.Identity) *appointment.Party {
	return &appointment.Party{ID: usr.ID, Name: usr.Name, Email: usr.Email}
}

func apptView(a appointment.Appointment, student, teacher *appointment.Party) appointment.View {
	return appointment.View{
		ID:              a.ID,
		Student:         student,
		Teacher:         teacher,
		AppointmentDate: a.AppointmentDate,
		Purpose:         a.Purpose,
		Status:          a.Status,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func msgView(m message.Message, sender *user.Identity) message.View {
	v := message.View{
		ID:          m.ID,
		RecipientID: m.RecipientID,
		Text:        m.Text,
		IsRead:      m.IsRead,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if sender != nil {
		v.Sender = &message.Sender{ID: sender.ID, Name: sender.Name}
	}
	return v
}
