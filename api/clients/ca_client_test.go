package clients

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ruteri/tinycert-go/api"
	"github.com/ruteri/tinycert-go/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupCAClient() (*MockRequester, *CAClient) {
	requester := new(MockRequester)
	return requester, NewCAClient(requester)
}

func TestCAClient_List(t *testing.T) {
	requester, client := setupCAClient()
	requester.On("Request", mock.Anything, "ca/list", interfaces.Params(nil)).
		Return(json.RawMessage(`[{"id":123,"name":"test ca"},{"id":456,"name":"another test ca"}]`), nil)

	result, err := client.List(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, interfaces.CAID(123), result[0].ID)
	assert.Equal(t, "test ca", result[0].Name)
	assert.Equal(t, interfaces.CAID(456), result[1].ID)
	assert.JSONEq(t, `{"id":456,"name":"another test ca"}`, string(result[1].Raw))
	requester.AssertExpectations(t)
}

func TestCAClient_Details(t *testing.T) {
	requester, client := setupCAClient()
	requester.On("Request", mock.Anything, "ca/details", interfaces.Params{"ca_id": interfaces.Int(123)}).
		Return(json.RawMessage(`{"id":123,"C":"US","ST":"Washington","L":"Seattle","O":"Acme, Inc.","OU":"Secure Digital Certificate Signing","CN":"Acme, Inc. CA","E":"admin@acme.com","hash_alg":"SHA256"}`), nil)

	result, err := client.Details(context.Background(), 123)
	require.NoError(t, err)
	result.Raw = nil
	assert.Equal(t, &api.CADetails{
		ID:      123,
		C:       "US",
		ST:      "Washington",
		L:       "Seattle",
		O:       "Acme, Inc.",
		OU:      "Secure Digital Certificate Signing",
		CN:      "Acme, Inc. CA",
		E:       "admin@acme.com",
		HashAlg: "SHA256",
	}, result)
	requester.AssertExpectations(t)
}

func TestCAClient_Get(t *testing.T) {
	requester, client := setupCAClient()
	requester.On("Request", mock.Anything, "ca/get", interfaces.Params{
		"ca_id": interfaces.Int(123),
		"what":  interfaces.String("cert"),
	}).Return(json.RawMessage(`{"pem":"-----BEGIN CERTIFICATE-----ABUNCHOFSTUFFHERE...-----END CERTIFICATE-----"}`), nil)

	result, err := client.Get(context.Background(), 123)
	require.NoError(t, err)
	assert.Equal(t, "-----BEGIN CERTIFICATE-----ABUNCHOFSTUFFHERE...-----END CERTIFICATE-----", result.PEM)
	requester.AssertExpectations(t)
}

func TestCAClient_Delete(t *testing.T) {
	requester, client := setupCAClient()
	requester.On("Request", mock.Anything, "ca/delete", interfaces.Params{"ca_id": interfaces.Int(123)}).
		Return(json.RawMessage(`{}`), nil)

	body, err := client.Delete(context.Background(), 123)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(body))
	requester.AssertExpectations(t)
}

func TestCAClient_KeepsResponseBodies(t *testing.T) {
	requester, client := setupCAClient()
	detailsBody := json.RawMessage(`{"id":1,"C":"US","O":"ACME","CN":"x","hash_alg":"SHA256","serial":"abc","not_after":1234}`)
	requester.On("Request", mock.Anything, "ca/details", interfaces.Params{"ca_id": interfaces.Int(1)}).Return(detailsBody, nil)
	requester.On("Request", mock.Anything, "ca/delete", interfaces.Params{"ca_id": interfaces.Int(1)}).
		Return(json.RawMessage(`{"deleted":true}`), nil)
	requester.On("Request", mock.Anything, "ca/list", interfaces.Params(nil)).
		Return(json.RawMessage(`[{"id":1,"name":"ACME CA","created":1700000000}]`), nil)

	details, err := client.Details(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "ACME", details.O)
	assert.Equal(t, string(detailsBody), string(details.Raw))

	var extra struct {
		Serial   string `json:"serial"`
		NotAfter int64  `json:"not_after"`
	}
	require.NoError(t, json.Unmarshal(details.Raw, &extra))
	assert.Equal(t, "abc", extra.Serial)
	assert.Equal(t, int64(1234), extra.NotAfter)

	deleted, err := client.Delete(context.Background(), 1)
	require.NoError(t, err)
	assert.JSONEq(t, `{"deleted":true}`, string(deleted))

	list, err := client.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.JSONEq(t, `{"id":1,"name":"ACME CA","created":1700000000}`, string(list[0].Raw))
	requester.AssertExpectations(t)
}

func TestCAClient_Create(t *testing.T) {
	requester, client := setupCAClient()
	requester.On("Request", mock.Anything, "ca/new", interfaces.Params{
		"C":           interfaces.String("US"),
		"O":           interfaces.String("Acme, Inc."),
		"L":           interfaces.String("Seattle"),
		"ST":          interfaces.String("Washington"),
		"hash_method": interfaces.String("sha256"),
	}).Return(json.RawMessage(`{"ca_id":123}`), nil)

	resp, err := client.Create(context.Background(), interfaces.CARequest{
		C:          "US",
		O:          "Acme, Inc.",
		L:          "Seattle",
		ST:         "Washington",
		HashMethod: "sha256",
	})
	require.NoError(t, err)
	assert.Equal(t, interfaces.CAID(123), resp.CAID)
	assert.JSONEq(t, `{"ca_id":123}`, string(resp.Raw))
	requester.AssertExpectations(t)
}

func TestCAClient_CreateInvalid(t *testing.T) {
	requester, client := setupCAClient()

	_, err := client.Create(context.Background(), interfaces.CARequest{C: "US", O: "Acme", HashMethod: "md5"})
	assert.Error(t, err)
	requester.AssertNotCalled(t, "Request", mock.Anything, mock.Anything, mock.Anything)
}

func TestCAClient_PropagatesHTTPError(t *testing.T) {
	requester, client := setupCAClient()
	httpErr := &interfaces.HTTPError{Path: "ca/list", StatusCode: 403, Body: []byte(`{"error":"forbidden"}`)}
	requester.On("Request", mock.Anything, "ca/list", interfaces.Params(nil)).Return(nil, httpErr)

	_, err := client.List(context.Background())
	var target *interfaces.HTTPError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, 403, target.StatusCode)
}
