package server

import (
	"fmt"
	"net/http"
	"testing"

	"homestead/internal/cache"
	"homestead/internal/models"
	"homestead/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPropertyBody() fiber.Map {
	return fiber.Map{
		"title":        "Two bedroom flat",
		"description":  "Bright flat close to the metro",
		"propertyType": "apartment",
		"dealType":     "sale",
		"price":        4200000000,
		"area":         95.5,
		"location":     "Shiraz",
		"images":       []string{"b.jpg", "a.jpg"},
	}
}

func TestCreateProperty(t *testing.T) {
	env := newTestEnv(t)
	u, token := env.signIn(models.RoleUser)

	resp := env.request(http.MethodPost, "/api/properties", newPropertyBody(), token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var p models.Property
	decodeJSON(t, resp, &p)
	assert.NotZero(t, p.ID)
	assert.Equal(t, u.ID, p.OwnerID)
	assert.Equal(t, models.PropertyStatusActive, p.Status)
	assert.Equal(t, models.StringList{"b.jpg", "a.jpg"}, p.Images)
}

func TestCreateProperty_RequiresSession(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(http.MethodPost, "/api/properties", newPropertyBody(), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, models.CodeUnauthorized, errorCode(t, resp))
}

func TestCreateProperty_BadBodies(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signIn(models.RoleUser)

	missingArea := newPropertyBody()
	delete(missingArea, "area")

	unknown := newPropertyBody()
	unknown["swimmingPool"] = true

	tests := []struct {
		name string
		body any
	}{
		{"missing area", missingArea},
		{"unknown field", unknown},
		{"malformed json", `{"title":`},
		{"trailing data", `{"title":"x"} {}`},
		{"wrong type", fiber.Map{"title": 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.request(http.MethodPost, "/api/properties", tt.body, token)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, models.CodeValidation, errorCode(t, resp))
		})
	}
}

func TestGetProperty(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.CreateUser(t, env.db, "Owner", "")
	p := testutil.CreateProperty(t, env.db, owner.ID, "Garden villa")

	resp := env.request(http.MethodGet, fmt.Sprintf("/api/properties/%d", p.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got models.Property
	decodeJSON(t, resp, &got)
	assert.Equal(t, "Garden villa", got.Title)
	require.NotNil(t, got.Owner)
	assert.Equal(t, owner.ID, got.Owner.ID)

	resp = env.request(http.MethodGet, "/api/properties/99999", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	for _, bad := range []string{"abc", "0", "-4"} {
		resp = env.request(http.MethodGet, "/api/properties/"+bad, nil, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, bad)
		assert.Equal(t, models.CodeInvalidID, errorCode(t, resp), bad)
	}
}

func TestListProperties_Filters(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.CreateUser(t, env.db, "Owner", "")
	sale := testutil.CreateProperty(t, env.db, owner.ID, "For sale")
	rent := testutil.CreateProperty(t, env.db, owner.ID, "For rent")
	require.NoError(t, env.db.Model(rent).Update("deal_type", "rent").Error)

	resp := env.request(http.MethodGet, "/api/properties?dealType=sale", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []models.Property
	decodeJSON(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, sale.ID, list[0].ID)

	resp = env.request(http.MethodGet, "/api/properties?minPrice=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.request(http.MethodGet, "/api/properties?minPrice=10&maxPrice=5", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateProperty_Ownership(t *testing.T) {
	env := newTestEnv(t)
	owner, ownerToken := env.signIn(models.RoleUser)
	_, otherToken := env.signIn(models.RoleUser)
	_, adminToken := env.signIn(models.RoleAdmin)
	p := testutil.CreateProperty(t, env.db, owner.ID, "Old title")
	path := fmt.Sprintf("/api/properties/%d", p.ID)

	resp := env.request(http.MethodPut, path, fiber.Map{"title": "Hijacked"}, otherToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.request(http.MethodPut, path, fiber.Map{"title": "New title"}, ownerToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got models.Property
	decodeJSON(t, resp, &got)
	assert.Equal(t, "New title", got.Title)
	assert.Equal(t, owner.ID, got.OwnerID)

	resp = env.request(http.MethodPut, path, fiber.Map{"status": "sold"}, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(http.MethodPut, path, fiber.Map{"ownerId": 1}, ownerToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.request(http.MethodPut, "/api/properties/424242", fiber.Map{"title": "Nope"}, ownerToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateProperty_NullClearsOptionalColumns(t *testing.T) {
	env := newTestEnv(t)
	owner, token := env.signIn(models.RoleUser)
	p := testutil.CreateProperty(t, env.db, owner.ID, "Flat")
	path := fmt.Sprintf("/api/properties/%d", p.ID)

	resp := env.request(http.MethodPut, path, fiber.Map{"price": 250000, "roomCount": 3}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got models.Property
	decodeJSON(t, resp, &got)
	require.NotNil(t, got.Price)
	require.NotNil(t, got.RoomCount)

	resp = env.request(http.MethodPut, path, fiber.Map{"title": "Flat renamed"}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = models.Property{}
	decodeJSON(t, resp, &got)
	require.NotNil(t, got.Price, "absent key leaves the column alone")
	assert.Equal(t, 250000.0, *got.Price)

	resp = env.request(http.MethodPut, path, fiber.Map{"price": nil, "roomCount": nil}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = models.Property{}
	decodeJSON(t, resp, &got)
	assert.Nil(t, got.Price)
	assert.Nil(t, got.RoomCount)
	assert.Equal(t, "Flat renamed", got.Title)

	resp = env.request(http.MethodPut, path, fiber.Map{"price": "cheap"}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateProperty_InvalidatesCache(t *testing.T) {
	env := newTestEnv(t)
	owner, token := env.signIn(models.RoleUser)
	p := testutil.CreateProperty(t, env.db, owner.ID, "Cached")
	path := fmt.Sprintf("/api/properties/%d", p.ID)

	resp := env.request(http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, env.redis.Exists(cache.PropertyKey(p.ID)))

	resp = env.request(http.MethodPut, path, fiber.Map{"title": "Fresh"}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, env.redis.Exists(cache.PropertyKey(p.ID)))

	resp = env.request(http.MethodGet, path, nil, "")
	var got models.Property
	decodeJSON(t, resp, &got)
	assert.Equal(t, "Fresh", got.Title)
}

func TestDeleteProperty(t *testing.T) {
	env := newTestEnv(t)
	owner, ownerToken := env.signIn(models.RoleUser)
	_, otherToken := env.signIn(models.RoleUser)
	p := testutil.CreateProperty(t, env.db, owner.ID, "Doomed")
	path := fmt.Sprintf("/api/properties/%d", p.ID)

	resp := env.request(http.MethodDelete, path, nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.request(http.MethodDelete, path, nil, otherToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.request(http.MethodDelete, path, nil, ownerToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	decodeJSON(t, resp, &body)
	assert.Equal(t, true, body["success"])

	resp = env.request(http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
