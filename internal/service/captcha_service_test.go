package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vnpay-checkout/internal/config"
	"github.com/vnpay-checkout/internal/constants"
)

func newImageCaptchaService(t *testing.T) *CaptchaService {
	t.Helper()
	return NewCaptchaService(config.CaptchaConfig{
		Provider: "IMAGE",
		Scenes:   config.CaptchaSceneConfig{AdminLogin: true},
	}, nil)
}

func TestCaptchaSceneDisabledPasses(t *testing.T) {
	svc := newImageCaptchaService(t)
	if err := svc.Verify(context.Background(), constants.CaptchaSceneCheckout, CaptchaVerifyPayload{}, ""); err != nil {
		t.Fatalf("disabled scene should pass, got %v", err)
	}

	none := NewCaptchaService(config.CaptchaConfig{
		Provider: "unknown",
		Scenes:   config.CaptchaSceneConfig{AdminLogin: true, Checkout: true},
	}, nil)
	if none.SceneEnabled(constants.CaptchaSceneAdminLogin) {
		t.Fatalf("provider none must disable every scene")
	}
	if _, err := none.GenerateImageChallenge(); !errors.Is(err, ErrCaptchaConfigInvalid) {
		t.Fatalf("expected ErrCaptchaConfigInvalid, got %v", err)
	}
}

func TestCaptchaImageVerify(t *testing.T) {
	svc := newImageCaptchaService(t)
	ctx := context.Background()

	if err := svc.Verify(ctx, constants.CaptchaSceneAdminLogin, CaptchaVerifyPayload{}, ""); !errors.Is(err, ErrCaptchaRequired) {
		t.Fatalf("expected ErrCaptchaRequired, got %v", err)
	}

	challenge, err := svc.GenerateImageChallenge()
	if err != nil {
		t.Fatalf("generate challenge failed: %v", err)
	}
	if challenge.CaptchaID == "" || !strings.HasPrefix(challenge.ImageBase64, "data:image/png;base64,") {
		t.Fatalf("unexpected challenge: %+v", challenge)
	}
	answer := svc.store().Get(challenge.CaptchaID, false)
	if len(answer) != 5 {
		t.Fatalf("unexpected answer length: %q", answer)
	}

	wrong := CaptchaVerifyPayload{CaptchaID: challenge.CaptchaID, CaptchaCode: "00000"}
	if err := svc.Verify(ctx, constants.CaptchaSceneAdminLogin, wrong, ""); !errors.Is(err, ErrCaptchaInvalid) {
		t.Fatalf("expected ErrCaptchaInvalid, got %v", err)
	}
	right := CaptchaVerifyPayload{CaptchaID: challenge.CaptchaID, CaptchaCode: answer}
	if err := svc.Verify(ctx, constants.CaptchaSceneAdminLogin, right, ""); !errors.Is(err, ErrCaptchaInvalid) {
		t.Fatalf("challenge must be consumed after a failed attempt, got %v", err)
	}

	challenge, err = svc.GenerateImageChallenge()
	if err != nil {
		t.Fatalf("generate challenge failed: %v", err)
	}
	right = CaptchaVerifyPayload{CaptchaID: challenge.CaptchaID, CaptchaCode: svc.store().Get(challenge.CaptchaID, false)}
	if err := svc.Verify(ctx, constants.CaptchaSceneAdminLogin, right, ""); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if err := svc.Verify(ctx, constants.CaptchaSceneAdminLogin, right, ""); !errors.Is(err, ErrCaptchaInvalid) {
		t.Fatalf("answer must not be reusable, got %v", err)
	}
}

func TestCaptchaTurnstileVerify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form failed: %v", err)
		}
		if r.PostForm.Get("secret") != "ts-secret" || r.PostForm.Get("remoteip") != "203.0.113.10" {
			t.Errorf("unexpected form: %v", r.PostForm)
		}
		_ = json.NewEncoder(w).Encode(turnstileVerifyResponse{Success: r.PostForm.Get("response") == "good-token"})
	}))
	defer server.Close()

	svc := NewCaptchaService(config.CaptchaConfig{
		Provider: constants.CaptchaProviderTurnstile,
		Scenes:   config.CaptchaSceneConfig{Checkout: true},
		Turnstile: config.CaptchaTurnstileConfig{
			SiteKey:   "ts-site",
			SecretKey: "ts-secret",
			VerifyURL: server.URL,
		},
	}, nil)
	ctx := context.Background()

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{name: "missing token", token: "", want: ErrCaptchaRequired},
		{name: "rejected token", token: "bad-token", want: ErrCaptchaInvalid},
		{name: "accepted token", token: "good-token", want: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Verify(ctx, constants.CaptchaSceneCheckout, CaptchaVerifyPayload{TurnstileToken: tc.token}, "203.0.113.10")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	setting := svc.PublicSetting()
	if setting.TurnstileSiteKey != "ts-site" || !setting.Scenes[constants.CaptchaSceneCheckout] || setting.Scenes[constants.CaptchaSceneAdminLogin] {
		t.Fatalf("unexpected public setting: %+v", setting)
	}
	raw, err := json.Marshal(setting)
	if err != nil {
		t.Fatalf("marshal public setting failed: %v", err)
	}
	if strings.Contains(string(raw), "ts-secret") {
		t.Fatalf("public setting leaked secret: %s", raw)
	}
}

func TestCaptchaTurnstileUnreachable(t *testing.T) {
	svc := NewCaptchaService(config.CaptchaConfig{
		Provider:  constants.CaptchaProviderTurnstile,
		Scenes:    config.CaptchaSceneConfig{AdminLogin: true},
		Turnstile: config.CaptchaTurnstileConfig{SecretKey: "ts-secret", VerifyURL: "http://127.0.0.1:1/verify"},
	}, nil)
	err := svc.Verify(context.Background(), constants.CaptchaSceneAdminLogin, CaptchaVerifyPayload{TurnstileToken: "t"}, "")
	if !errors.Is(err, ErrCaptchaVerifyFailed) {
		t.Fatalf("expected ErrCaptchaVerifyFailed, got %v", err)
	}
}
