package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cab-basket/socios-api/internal/dto"
	"github.com/cab-basket/socios-api/internal/rules"
	"github.com/cab-basket/socios-api/pkg/response"
)

func pricingRequest(t *testing.T, target string, query url.Values) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, target+"?"+query.Encode(), nil)
	require.NoError(t, err)
	c.Request = req
	return c, w
}

func TestPricingHandlerClassify(t *testing.T) {
	handler := NewPricingHandler(rules.NewValidator())
	c, w := pricingRequest(t, "/pricing/classify", url.Values{
		"birth_date": {"2016-05-01"},
		"gender":     {"F"},
	})

	handler.Classify(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.ClassifyResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, rules.CategoryMini10, envelope.Data.Category)
	assert.Equal(t, rules.BandMini, envelope.Data.Band)
	assert.False(t, envelope.Data.DuesExempt)
}

func TestPricingHandlerClassifyBadDate(t *testing.T) {
	handler := NewPricingHandler(rules.NewValidator())
	c, w := pricingRequest(t, "/pricing/classify", url.Values{
		"birth_date": {"01/05/2016"},
		"gender":     {"F"},
	})

	handler.Classify(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPricingHandlerEstimateProSecondAthlete(t *testing.T) {
	handler := NewPricingHandler(rules.NewValidator())
	c, w := pricingRequest(t, "/pricing/estimate", url.Values{
		"birth_date":     {"2016-05-01"},
		"gender":         {"M"},
		"tier":           {string(rules.TierPro)},
		"eligible_count": {"2"},
		"pro_rank":       {"2"},
	})

	handler.Estimate(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.EstimateResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, rules.CategoryMini10, envelope.Data.Category)
	assert.InDelta(t, 25.0, envelope.Data.Quote.MonthlyInstallment, 0.001)
	assert.Contains(t, envelope.Data.MonthlyText, "€")
}

func TestPricingHandlerEstimateUnknownTier(t *testing.T) {
	handler := NewPricingHandler(rules.NewValidator())
	c, w := pricingRequest(t, "/pricing/estimate", url.Values{
		"birth_date": {"2016-05-01"},
		"gender":     {"M"},
		"tier":       {"Sócio Platina"},
	})

	handler.Estimate(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
}
