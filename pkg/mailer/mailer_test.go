package mailer

import (
	"strings"
	"testing"

	"github.com/ise-alumni/portal-sub001/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEmailConfig() *config.EmailConfig {
	return &config.EmailConfig{
		From:      "noreply@alumni.example.com",
		FromName:  "Alumni Portal",
		RelayHost: "smtp.sendgrid.net",
		RelayPort: 587,
		Username:  "apikey",
		Password:  "secret",
		LocalHost: "127.0.0.1",
		LocalPort: 1025,
	}
}

// TestNewSelectsTransport тестирует выбор транспорта по окружению
func TestNewSelectsTransport(t *testing.T) {
	tests := []struct {
		name       string
		production bool
		wantAddr   string
		wantTLS    bool
	}{
		{name: "production selects relay", production: true, wantAddr: "smtp.sendgrid.net:587", wantTLS: true},
		{name: "development selects local endpoint", production: false, wantAddr: "127.0.0.1:1025", wantTLS: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(testEmailConfig(), tt.production)

			sm, ok := m.(*smtpMailer)
			require.True(t, ok)
			assert.Equal(t, tt.wantAddr, sm.addr)
			assert.Equal(t, tt.wantTLS, sm.useTLS)
			assert.True(t, m.Configured())
		})
	}
}

// TestConfigured тестирует определение неполной конфигурации
func TestConfigured(t *testing.T) {
	tests := []struct {
		name       string
		production bool
		username   string
		password   string
		want       bool
	}{
		{name: "relay with credentials", production: true, username: "apikey", password: "secret", want: true},
		{name: "relay without password", production: true, username: "apikey", password: "", want: false},
		{name: "relay without any credentials", production: true, username: "", password: "", want: false},
		{name: "local needs no credentials", production: false, username: "", password: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testEmailConfig()
			cfg.Username = tt.username
			cfg.Password = tt.password

			m := New(cfg, tt.production)

			assert.Equal(t, tt.want, m.Configured())
		})
	}
}

// TestDefaultFrom тестирует формирование адреса отправителя
func TestDefaultFrom(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		fromName string
		want     string
	}{
		{name: "with display name", from: "noreply@alumni.example.com", fromName: "Alumni Portal", want: "Alumni Portal <noreply@alumni.example.com>"},
		{name: "bare address", from: "noreply@alumni.example.com", fromName: "", want: "noreply@alumni.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testEmailConfig()
			cfg.From = tt.from
			cfg.FromName = tt.fromName

			m := New(cfg, false)

			assert.Equal(t, tt.want, m.DefaultFrom())
		})
	}
}

// TestBuildMessage тестирует сборку MIME-сообщения
func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage(
		"grad@example.com",
		"Event reminder",
		"<h1>Tomorrow</h1>",
		"Alumni Portal <noreply@alumni.example.com>",
	))

	headers, body, found := strings.Cut(msg, "\r\n\r\n")
	require.True(t, found)

	assert.Contains(t, headers, "From: Alumni Portal <noreply@alumni.example.com>")
	assert.Contains(t, headers, "To: grad@example.com")
	assert.Contains(t, headers, "Subject: Event reminder")
	assert.Contains(t, headers, "MIME-Version: 1.0")
	assert.Contains(t, headers, `Content-Type: text/html; charset="UTF-8"`)
	assert.Equal(t, "<h1>Tomorrow</h1>", body)
}

// TestBareAddress тестирует извлечение адреса из строки с именем
func TestBareAddress(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want string
	}{
		{name: "display name form", addr: "Alumni Portal <noreply@alumni.example.com>", want: "noreply@alumni.example.com"},
		{name: "bare address", addr: "noreply@alumni.example.com", want: "noreply@alumni.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bareAddress(tt.addr))
		})
	}
}
