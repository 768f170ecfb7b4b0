package sendgrid_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/textile-storefront/internal/models"
	sendgrid_client "github.com/aaravmahajanofficial/textile-storefront/pkg/sendgrid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmailService(t *testing.T) {
	// Arrange
	apiKey := "test-api-key"
	fromEmail := "sender@example.com"
	fromName := "Test Sender"

	// Act
	service := sendgrid_client.NewEmailService(apiKey, fromEmail, fromName)

	// Assert
	assert.NotNil(t, service)
}

type sendgridV3Payload struct {
	Personalizations []struct {
		To      []map[string]string `json:"to"`
		Cc      []map[string]string `json:"cc,omitempty"`
		Bcc     []map[string]string `json:"bcc,omitempty"`
		Subject string              `json:"subject"`
	} `json:"personalizations"`
	From    map[string]string `json:"from"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

func TestEmailService_Send(t *testing.T) {
	apiKey := "SG.test-api-key"
	fromEmail := "from@example.com"
	fromName := "Test Sender"
	ctx := t.Context()

	var mockServer *httptest.Server

	var lastRequestPayload sendgridV3Payload

	var handlerFunc http.HandlerFunc

	// startMockServer sets up and starts the httptest server with the current handlerFunc.
	startMockServer := func() {
		mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "Failed to read request body", http.StatusInternalServerError)

				return
			}

			defer r.Body.Close()

			err = json.Unmarshal(bodyBytes, &lastRequestPayload)
			if err != nil {
				http.Error(w, "Failed to unmarshal request body", http.StatusBadRequest)

				return
			}

			handlerFunc(w, r)
		}))
	}

	tests := []struct {
		name          string
		req           *models.EmailNotificationRequest
		handler       http.HandlerFunc                              // Mock server handler for this specific test
		expectedError string                                        // Substring expected in the error message, empty for no error
		checkPayload  func(t *testing.T, payload sendgridV3Payload) // Optional payload validation
	}{
		{
			name: "Success - Simple Email",
			req: &models.EmailNotificationRequest{
				To:          "recipient@example.com",
				ToName:      "Maria Silva",
				Subject:     "Test Subject 1",
				Content:     "Plain text content",
				HTMLContent: "<h1>HTML Content</h1>",
			},
			handler: func(w http.ResponseWriter, r *http.Request) {
				// Assert
				assert.Equal(t, http.MethodPost, r.Method, "Expected POST request")
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Equal(t, "Bearer "+apiKey, r.Header.Get("Authorization"))
				w.WriteHeader(http.StatusAccepted) // 202 Accepted is typical for SendGrid v3 mail/send
			},
			expectedError: "",
			checkPayload: func(t *testing.T, p sendgridV3Payload) {
				require.Len(t, p.Personalizations, 1, "Expected one personalization block")
				pers := p.Personalizations[0]
				require.Len(t, pers.To, 1, "Expected one TO recipient")
				assert.Equal(t, "recipient@example.com", pers.To[0]["email"])
				assert.Equal(t, "Maria Silva", pers.To[0]["name"])
				assert.Empty(t, pers.Cc, "Expected no CC recipients")
				assert.Empty(t, pers.Bcc, "Expected no BCC recipients")
				assert.Equal(t, "Test Subject 1", pers.Subject)

				assert.Equal(t, fromEmail, p.From["email"])
				assert.Equal(t, fromName, p.From["name"])

				require.Len(t, p.Content, 2, "Expected two content blocks (text and html)")
				assert.Equal(t, "text/plain", p.Content[0].Type)
				assert.Equal(t, "Plain text content", p.Content[0].Value)
				assert.Equal(t, "text/html", p.Content[1].Type)
				assert.Equal(t, "<h1>HTML Content</h1>", p.Content[1].Value)
			},
		},
		{
			name: "Success - With CC and BCC",
			req: &models.EmailNotificationRequest{
				To:          "recipient@example.com",
				CC:          []string{"cc1@example.com", "cc2@example.com"},
				BCC:         []string{"bcc1@example.com"},
				Subject:     "Test Subject 2",
				Content:     "Another plain text",
				HTMLContent: "<p>HTML</p>",
			},
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusAccepted)
			},
			expectedError: "",
			checkPayload: func(t *testing.T, p sendgridV3Payload) {
				require.Len(t, p.Personalizations, 1)
				pers := p.Personalizations[0]
				require.Len(t, pers.To, 1)
				assert.Equal(t, "recipient@example.com", pers.To[0]["email"])
				require.Len(t, pers.Cc, 2, "Expected two CC recipients")
				assert.Equal(t, "cc1@example.com", pers.Cc[0]["email"])
				assert.Equal(t, "cc2@example.com", pers.Cc[1]["email"])
				require.Len(t, pers.Bcc, 1, "Expected one BCC recipient")
				assert.Equal(t, "bcc1@example.com", pers.Bcc[0]["email"])
				assert.Equal(t, "Test Subject 2", pers.Subject)

				require.Len(t, p.Content, 2)
				assert.Equal(t, "Another plain text", p.Content[0].Value)
				assert.Equal(t, "<p>HTML</p>", p.Content[1].Value)
			},
		},
		{
			name: "Success - Text only",
			req: &models.EmailNotificationRequest{
				To:      "recipient@example.com",
				Subject: "Pedido confirmado",
				Content: "Seu pedido foi recebido.",
			},
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusAccepted)
			},
			expectedError: "",
			checkPayload: func(t *testing.T, p sendgridV3Payload) {
				require.Len(t, p.Content, 1, "Expected only the text block")
				assert.Equal(t, "text/plain", p.Content[0].Type)
			},
		},
		{
			name: "Failure - SendGrid API Error (4xx)",
			req: &models.EmailNotificationRequest{
				To:      "bad@example.com",
				Subject: "Test Subject 3",
				Content: "Content",
			},
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest) // 400 Bad Request
				_, _ = w.Write([]byte(`{"errors": [{"message": "Invalid email"}]}`))
			},
			expectedError: "failed to send email, status code: 400",
			checkPayload: func(t *testing.T, p sendgridV3Payload) {
				require.Len(t, p.Personalizations, 1)
				assert.Equal(t, "bad@example.com", p.Personalizations[0].To[0]["email"])
			},
		},
		{
			name: "Failure - Invalid recipient is not sent",
			req: &models.EmailNotificationRequest{
				To:      "not-an-email",
				Subject: "Pedido confirmado",
				Content: "Content",
			},
			handler: func(w http.ResponseWriter, r *http.Request) {
				t.Error("SendGrid must not be called for an invalid request")
				w.WriteHeader(http.StatusAccepted)
			},
			expectedError: "invalid email request",
			checkPayload: func(t *testing.T, p sendgridV3Payload) {
				assert.Empty(t, p.Personalizations)
			},
		},
		{
			name: "Failure - SendGrid API Error (5xx)",
			req: &models.EmailNotificationRequest{
				To:      "recipient@example.com",
				Subject: "Test Subject 4",
				Content: "Content",
			},
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError) // 500 Internal Server Error
			},
			expectedError: "failed to send email, status code: 500",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lastRequestPayload = sendgridV3Payload{} // Reset payload capture
			handlerFunc = tc.handler                 // Set the handler for this test

			startMockServer() // Start the server for this test case

			serviceImpl := sendgrid_client.NewEmailService(apiKey, fromEmail, fromName, sendgrid_client.WithBaseURL(mockServer.URL))

			// Act
			err := serviceImpl.Send(ctx, tc.req)

			// Assert
			if tc.expectedError == "" {
				assert.NoError(t, err, "Expected no error")
			} else {
				assert.Error(t, err, "Expected an error")
				assert.Contains(t, err.Error(), tc.expectedError, "Error message mismatch")
			}

			if tc.checkPayload != nil {
				tc.checkPayload(t, lastRequestPayload)
			}

			mockServer.Close()
		})
	}

	t.Run("Failure - Network Error", func(t *testing.T) {
		// Arrange
		startMockServer()

		serviceImpl := sendgrid_client.NewEmailService(apiKey, fromEmail, fromName, sendgrid_client.WithBaseURL(mockServer.URL))
		mockServer.Close()

		req := &models.EmailNotificationRequest{
			To:      "recipient@example.com",
			Subject: "Network Error Test",
			Content: "Content",
		}

		// Act
		err := serviceImpl.Send(ctx, req)

		// Assert
		assert.Error(t, err, "Expected a network error")
		assert.True(t, strings.Contains(err.Error(), "connect: connection refused") || strings.Contains(err.Error(), "dial tcp"), "Expected connection refused or dial tcp error")
	})
}

func TestEmailService_SendOrderConfirmation(t *testing.T) {
	t.Run("Success - Receipt is rendered and sent to the profile", func(t *testing.T) {
		// Arrange
		var payload sendgridV3Payload
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			w.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		svc := sendgrid_client.NewEmailService("SG.key", "loja@example.com", "Loja", sendgrid_client.WithBaseURL(server.URL))

		// Act
		err := svc.SendOrderConfirmation(t.Context(), receiptUser(), receiptOrder())

		// Assert
		require.NoError(t, err)
		require.Len(t, payload.Personalizations, 1)
		assert.Equal(t, "ana@example.com", payload.Personalizations[0].To[0]["email"])
		assert.Equal(t, "Pedido 3F2A9C1D confirmado", payload.Personalizations[0].Subject)
		require.Len(t, payload.Content, 2)
		assert.Contains(t, payload.Content[0].Value, "Total: R$ 99,90")
	})
}

func TestOrderConfirmation(t *testing.T) {
	t.Run("Success - Text and HTML parts", func(t *testing.T) {
		// Act
		req, err := sendgrid_client.OrderConfirmation(receiptUser(), receiptOrder())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "Ana <Souza>", req.ToName)
		assert.Contains(t, req.Content, "Olá Ana <Souza>,")
		assert.Contains(t, req.Content, "- 3x Travesseiro Plumas: R$ 30,00")
		assert.Contains(t, req.Content, "- Linho Cru (2,50 m): R$ 37,50")
		assert.Contains(t, req.Content, "Frete: R$ 32,40")
		assert.Contains(t, req.Content, "Pagamento: Pix")
		assert.Contains(t, req.Content, "Previsão: 05/03/2025")
		assert.Contains(t, req.HTMLContent, "Ana &lt;Souza&gt;")
		assert.NotContains(t, req.HTMLContent, "<Souza>")
	})

	t.Run("Success - Pickup is free", func(t *testing.T) {
		// Arrange
		order := receiptOrder()
		order.ShippingCost = 0

		// Act
		req, err := sendgrid_client.OrderConfirmation(receiptUser(), order)

		// Assert
		require.NoError(t, err)
		assert.Contains(t, req.Content, "Frete: Grátis")
	})
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 0,00", sendgrid_client.FormatBRL(0))
	assert.Equal(t, "R$ 1.234,50", sendgrid_client.FormatBRL(1234.5))
}

func receiptUser() *models.UserProfile {
	return &models.UserProfile{ID: "u-1", Name: "Ana <Souza>", Email: "ana@example.com"}
}

func receiptOrder() *models.Order {
	meters := 2.5
	sale := 15.0

	return &models.Order{
		ID: "3f2a9c1d-0000-4000-8000-000000000001",
		Items: []models.CartLine{
			{Product: models.Product{ID: "trav-plumas", Name: "Travesseiro Plumas", Type: models.ProductTypePillow, Price: 10}, Quantity: 3},
			{Product: models.Product{ID: "tec-linho-cru", Name: "Linho Cru", Type: models.ProductTypeFabric, Price: 20, SalePrice: &sale, OnSale: true}, Meters: &meters},
		},
		Subtotal:          67.5,
		ShippingCost:      32.4,
		Total:             99.9,
		PaymentMethod:     models.PaymentMethodPix,
		Shipping:          models.ShippingOption{ID: "sedex", Label: "SEDEX", Price: 32.4, DeliveryTime: "2 dias úteis"},
		EstimatedDelivery: time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC),
	}
}
