package tests

import (
	"net/http"
	"testing"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core/user"
	testutil "github.com/trezcool/darasa/tests"
)

func Test_userApi_login(t *testing.T) {
	usr := testutil.CreateUser(t, usrRepo, "Jina Kamili", "jkamili", "jkamili@test.cd", "LePass123", nil, true)
	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog", "ndog@test.cd", "LePass123", nil, false)

	tests := []httpTest{
		{
			name: "empty body", body: []byte("{}"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown user", body: marchallObj(t, echoapi.LoginRequest{Username: "lol", Password: "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", body: marchallObj(t, echoapi.LoginRequest{Username: usr.Username, Password: "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", body: marchallObj(t, echoapi.LoginRequest{Username: naughty.Username, Password: "LePass123"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "login with username", body: marchallObj(t, echoapi.LoginRequest{Username: usr.Username, Password: "LePass123"})},
		{name: "login with email", body: marchallObj(t, echoapi.LoginRequest{Username: usr.Email, Password: "LePass123"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
			}
			if rec.Body.Len() == 0 {
				t.Error("expected a token in the response")
			}
		})
	}
}

func Test_userApi_userQuery_auth(t *testing.T) {
	student := testutil.CreateUser(t, usrRepo, "Student Q", "zqstudent", "zqstudent@test.cd", "", user.StudentRoles, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin Q", "zqadmin", "zqadmin@test.cd", "", user.AdminRoles, true)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "admin required", token: getToken(t, student), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "admin allowed", token: getToken(t, admin), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/users?search=zqstudent", tt.token)
			app.ServeHTTP(rec, req)

			if tt.wantData != nil && tt.wantCode != http.StatusOK {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
			}
			ok, err := jsonBytesEqual(rec.Body.Bytes(), marchallList(t, student))
			if err != nil {
				t.Fatalf("jsonBytesEqual() failed: %v", err)
			}
			if !ok {
				t.Errorf("failed! data = %v", rec.Body.String())
			}
		})
	}
}

func Test_userApi_userRetrieve(t *testing.T) {
	usr := testutil.CreateUser(t, usrRepo, "Retrieve Me", "retrieveme", "retrieveme@test.cd", "", user.StudentRoles, true)
	other := testutil.CreateUser(t, usrRepo, "Other R", "otherr", "otherr@test.cd", "", user.StudentRoles, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin R", "adminr", "adminr@test.cd", "", user.AdminRoles, true)

	tests := []httpTest{
		{name: "own profile", token: getToken(t, usr), wantData: marchallObj(t, usr)},
		{name: "other's profile is hidden", token: getToken(t, other), wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "admin sees all", token: getToken(t, admin), wantData: marchallObj(t, usr)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+usr.ID, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_tokenRefresh(t *testing.T) {
	usr := testutil.CreateUser(t, usrRepo, "Refresh Me", "refreshme", "refreshme@test.cd", "", user.StudentRoles, true)

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, usr))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	if rec.Body.Len() == 0 {
		t.Error("expected a token in the response")
	}
}
