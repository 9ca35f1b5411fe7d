package contact_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	appContact "github.com/NeuralTrust/FormGate/pkg/app/contact"
	securityMocks "github.com/NeuralTrust/FormGate/pkg/app/security/mocks"
	"github.com/NeuralTrust/FormGate/pkg/domain/contact"
	"github.com/NeuralTrust/FormGate/pkg/domain/contact/mocks"
	domain "github.com/NeuralTrust/FormGate/pkg/domain/errors"
	"github.com/NeuralTrust/FormGate/pkg/domain/security"
	"github.com/NeuralTrust/FormGate/pkg/infra/ratelimit"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	validBody = `{"name":"Jane Doe","email":"jane@example.com","message":"Hello, I would like a quote.","captchaToken":"tok-123"}`
	clientIP  = "203.0.113.7"
)

type gateFixture struct {
	gate       appContact.Gate
	captcha    *mocks.MockCaptchaVerifier
	limiter    *mocks.MockRateLimiter
	dispatcher *mocks.MockDispatcher
	recorder   *securityMocks.MockRecorder
	hook       *logtest.Hook
}

func newGateFixture(opts appContact.GateOpts) *gateFixture {
	logger, hook := logtest.NewNullLogger()
	f := &gateFixture{
		captcha:    new(mocks.MockCaptchaVerifier),
		limiter:    new(mocks.MockRateLimiter),
		dispatcher: new(mocks.MockDispatcher),
		recorder:   new(securityMocks.MockRecorder),
		hook:       hook,
	}
	f.gate = appContact.NewGate(appContact.GateDI{
		Logger:     logger,
		Sanitizer:  appContact.NewSanitizer(),
		Validator:  appContact.NewValidator(),
		Captcha:    f.captcha,
		Limiter:    f.limiter,
		Dispatcher: f.dispatcher,
		Recorder:   f.recorder,
		Opts:       opts,
	})
	return f
}

func input(body string) appContact.SubmitInput {
	return appContact.SubmitInput{
		Body:      []byte(body),
		ClientID:  clientIP,
		RemoteIP:  clientIP,
		Path:      "/api/contact",
		UserAgent: "Mozilla/5.0",
	}
}

func expectedSubmission() contact.Submission {
	return contact.Submission{
		Name:         "Jane Doe",
		Email:        "jane@example.com",
		Message:      "Hello, I would like a quote.",
		CaptchaToken: "tok-123",
	}
}

func allowed() contact.Decision {
	return contact.Decision{Allowed: true, Count: 1, Limit: 5, Remaining: 4, ResetAt: time.Now().Add(time.Hour)}
}

func TestGate_Success_SendsNotificationThenConfirmation(t *testing.T) {
	f := newGateFixture(appContact.GateOpts{})
	var order []string

	f.captcha.On("Verify", mock.Anything, "tok-123", clientIP).Return(true, nil).Once()
	f.limiter.On("TryAcquire", mock.Anything, clientIP).Return(allowed(), nil).Once()
	f.dispatcher.On("SendNotification", mock.Anything, expectedSubmission()).
		Run(func(mock.Arguments) { order = append(order, "notification") }).
		Return(nil).Once()
	f.dispatcher.On("SendConfirmation", mock.Anything, expectedSubmission()).
		Run(func(mock.Arguments) { order = append(order, "confirmation") }).
		Return(nil).Once()

	err := f.gate.Submit(context.Background(), input(validBody))

	require.NoError(t, err)
	assert.Equal(t, []string{"notification", "confirmation"}, order)
	f.captcha.AssertExpectations(t)
	f.limiter.AssertExpectations(t)
	f.dispatcher.AssertExpectations(t)
}

func TestGate_SanitizesBeforeDispatch(t *testing.T) {
	f := newGateFixture(appContact.GateOpts{})
	body := `{"name":"<b>Jane</b> Doe","email":" jane@example.com ","message":"<script>x()</script>Hello, I would like a quote.","captchaToken":"tok-123"}`

	f.captcha.On("Verify", mock.Anything, "tok-123", clientIP).Return(true, nil)
	f.limiter.On("TryAcquire", mock.Anything, clientIP).Return(allowed(), nil)
	f.dispatcher.On("SendNotification", mock.Anything, expectedSubmission()).Return(nil).Once()
	f.dispatcher.On("SendConfirmation", mock.Anything, expectedSubmission()).Return(nil).Once()

	err := f.gate.Submit(context.Background(), input(body))

	require.NoError(t, err)
	f.dispatcher.AssertExpectations(t)
}

func TestGate_InvalidInput_StopsBeforeCollaborators(t *testing.T) {
	f := newGateFixture(appContact.GateOpts{})
	body := `{"name":"J","email":"nope","message":"short","captchaToken":"tok-123"}`

	err := f.gate.Submit(context.Background(), input(body))

	var inputErr *domain.ClientInputError
	require.True(t, errors.As(err, &inputErr))
	assert.Contains(t, inputErr.Fields, "name")
	assert.Contains(t, inputErr.Fields, "email")
	assert.Contains(t, inputErr.Fields, "message")
	f.captcha.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
	f.limiter.AssertNotCalled(t, "TryAcquire", mock.Anything, mock.Anything)
	f.dispatcher.AssertNotCalled(t, "SendNotification", mock.Anything, mock.Anything)
}

func TestGate_MalformedBody(t *testing.T) {
	f := newGateFixture(appContact.GateOpts{})

	err := f.gate.Submit(context.Background(), input(`{"name":`))

	assert.Equal(t, domain.KindMalformedBody, domain.KindOf(err))
	f.captcha.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
}

func TestGate_NonStringFieldIsClientInput(t *testing.T) {
	f := newGateFixture(appContact.GateOpts{})
	body := `{"name":42,"email":"jane@example.com","message":"Hello, I would like a quote.","captchaToken":"tok-123"}`

	err := f.gate.Submit(context.Background(), input(body))

	var inputErr *domain.ClientInputError
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, "must be a string", inputErr.Fields["name"])
}

func TestGate_CaptchaRejected(t *testing.T) {
	f := newGateFixture(appContact.GateOpts{})
	f.captcha.On("Verify", mock.Anything, "tok-123", clientIP).Return(false, nil).Once()
	f.recorder.On("Record", mock.Anything, mock.MatchedBy(func(evt security.Event) bool {
		return evt.Type == security.SuspiciousActivity && evt.Details["reason"] == "captcha_failed"
	})).Once()

	err := f.gate.Submit(context.Background(), input(validBody))

	assert.Equal(t, domain.KindCaptcha, domain.KindOf(err))
	f.recorder.AssertExpectations(t)
	f.limiter.AssertNotCalled(t, "TryAcquire", mock.Anything, mock.Anything)
	f.dispatcher.AssertNotCalled(t, "SendNotification", mock.Anything, mock.Anything)
}

func TestGate_CaptchaTransportErrorFailsClosed(t *testing.T) {
	f := newGateFixture(appContact.GateOpts{})
	f.captcha.On("Verify", mock.Anything, "tok-123", clientIP).
		Return(false, errors.New("context deadline exceeded")).Once()
	f.recorder.On("Record", mock.Anything, mock.Anything).Once()

	err := f.gate.Submit(context.Background(), input(validBody))

	assert.Equal(t, domain.KindCaptcha, domain.KindOf(err))
	f.dispatcher.AssertNotCalled(t, "SendNotification", mock.Anything, mock.Anything)
}

func TestGate_CountFailedCaptcha(t *testing.T) {
	f := newGateFixture(appContact.GateOpts{CountFailedCaptcha: true})
	f.captcha.On("Verify", mock.Anything, "tok-123", clientIP).Return(false, nil).Once()
	f.recorder.On("Record", mock.Anything, mock.Anything).Once()
	f.limiter.On("TryAcquire", mock.Anything, clientIP).Return(allowed(), nil).Once()

	err := f.gate.Submit(context.Background(), input(validBody))

	assert.Equal(t, domain.KindCaptcha, domain.KindOf(err))
	f.limiter.AssertNumberOfCalls(t, "TryAcquire", 1)
	f.dispatcher.AssertNotCalled(t, "SendNotification", mock.Anything, mock.Anything)
}

func TestGate_RateLimited_RecordsViolation(t *testing.T) {
	f := newGateFixture(appContact.GateOpts{})
	decision := contact.Decision{Allowed: false, Count: 5, Limit: 5, ResetAt: time.Now().Add(30 * time.Minute)}

	f.captcha.On("Verify", mock.Anything, "tok-123", clientIP).Return(true, nil)
	f.limiter.On("TryAcquire", mock.Anything, clientIP).Return(decision, nil).Once()
	f.recorder.On("Record", mock.Anything, mock.MatchedBy(func(evt security.Event) bool {
		return evt.Type == security.RateLimitViolation && evt.IP == clientIP && evt.Path == "/api/contact"
	})).Once()

	err := f.gate.Submit(context.Background(), input(validBody))

	var limitErr *domain.RateLimitExceededError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 5, limitErr.Limit)
	assert.Greater(t, limitErr.RetryAfter, 29*time.Minute)
	f.recorder.AssertExpectations(t)
	f.dispatcher.AssertNotCalled(t, "SendNotification", mock.Anything, mock.Anything)
}

func TestGate_StoreFailure(t *testing.T) {
	t.Run("fail closed is a dependency error", func(t *testing.T) {
		f := newGateFixture(appContact.GateOpts{})
		f.captcha.On("Verify", mock.Anything, "tok-123", clientIP).Return(true, nil)
		f.limiter.On("TryAcquire", mock.Anything, clientIP).
			Return(contact.Decision{Allowed: false}, ratelimit.ErrStoreUnavailable)

		err := f.gate.Submit(context.Background(), input(validBody))

		assert.Equal(t, domain.KindDependency, domain.KindOf(err))
		f.dispatcher.AssertNotCalled(t, "SendNotification", mock.Anything, mock.Anything)
	})

	t.Run("fail open sends mail", func(t *testing.T) {
		f := newGateFixture(appContact.GateOpts{})
		f.captcha.On("Verify", mock.Anything, "tok-123", clientIP).Return(true, nil)
		f.limiter.On("TryAcquire", mock.Anything, clientIP).
			Return(contact.Decision{Allowed: true}, ratelimit.ErrStoreUnavailable)
		f.dispatcher.On("SendNotification", mock.Anything, expectedSubmission()).Return(nil).Once()
		f.dispatcher.On("SendConfirmation", mock.Anything, expectedSubmission()).Return(nil).Once()

		err := f.gate.Submit(context.Background(), input(validBody))

		require.NoError(t, err)
		f.dispatcher.AssertExpectations(t)
	})
}

func TestGate_NotificationFailureSkipsConfirmation(t *testing.T) {
	f := newGateFixture(appContact.GateOpts{})
	f.captcha.On("Verify", mock.Anything, "tok-123", clientIP).Return(true, nil)
	f.limiter.On("TryAcquire", mock.Anything, clientIP).Return(allowed(), nil)
	f.dispatcher.On("SendNotification", mock.Anything, expectedSubmission()).
		Return(&domain.MailDeliveryError{Kind: domain.MailNotification, Err: errors.New("502")}).Once()

	err := f.gate.Submit(context.Background(), input(validBody))

	assert.Equal(t, domain.KindDependency, domain.KindOf(err))
	f.dispatcher.AssertNotCalled(t, "SendConfirmation", mock.Anything, mock.Anything)
}

func TestGate_ConfirmationFailureAfterNotification(t *testing.T) {
	f := newGateFixture(appContact.GateOpts{})
	f.captcha.On("Verify", mock.Anything, "tok-123", clientIP).Return(true, nil)
	f.limiter.On("TryAcquire", mock.Anything, clientIP).Return(allowed(), nil)
	f.dispatcher.On("SendNotification", mock.Anything, expectedSubmission()).Return(nil).Once()
	f.dispatcher.On("SendConfirmation", mock.Anything, expectedSubmission()).
		Return(&domain.MailDeliveryError{Kind: domain.MailConfirmation, Err: errors.New("timeout")}).Once()

	err := f.gate.Submit(context.Background(), input(validBody))

	var mailErr *domain.MailDeliveryError
	require.True(t, errors.As(err, &mailErr))
	assert.Equal(t, domain.MailConfirmation, mailErr.Kind)
	f.dispatcher.AssertNumberOfCalls(t, "SendNotification", 1)
	f.dispatcher.AssertNumberOfCalls(t, "SendConfirmation", 1)
}

func TestGate_SixthSubmissionInWindowIsRejected(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	client, redisMock := redismock.NewClientMock()
	now := time.UnixMilli(1740730536000)
	uid := uuid.New()
	key := "contact-rate-limit:" + clientIP
	nowMs := now.UnixMilli()
	windowStart := strconv.FormatInt(nowMs-time.Hour.Milliseconds(), 10)
	nowStr := strconv.FormatInt(nowMs, 10)

	for i := int64(0); i < 5; i++ {
		redisMock.ExpectZCount(key, "("+windowStart, nowStr).SetVal(i)
		redisMock.ExpectTxPipeline()
		redisMock.ExpectZRemRangeByScore(key, "0", windowStart).SetVal(0)
		redisMock.ExpectZAdd(key, &redis.Z{Score: float64(nowMs), Member: nowStr + ":" + uid.String()}).SetVal(1)
		redisMock.ExpectExpire(key, time.Hour).SetVal(true)
		redisMock.ExpectTxPipelineExec()
	}
	redisMock.ExpectZCount(key, "("+windowStart, nowStr).SetVal(5)

	limiter := ratelimit.NewSlidingWindowLimiter(client, ratelimit.Config{
		Name:          "contact",
		KeyPrefix:     "contact-rate-limit",
		Window:        time.Hour,
		MaxRequests:   5,
		FailurePolicy: ratelimit.FailClosed,
	}, &ratelimit.SlidingWindowOpts{
		TimeProvider: func() time.Time { return now },
		UuidProvider: func() uuid.UUID { return uid },
	})

	captcha := new(mocks.MockCaptchaVerifier)
	captcha.On("Verify", mock.Anything, "tok-123", clientIP).Return(true, nil)
	dispatcher := new(mocks.MockDispatcher)
	dispatcher.On("SendNotification", mock.Anything, mock.Anything).Return(nil)
	dispatcher.On("SendConfirmation", mock.Anything, mock.Anything).Return(nil)
	recorder := new(securityMocks.MockRecorder)
	recorder.On("Record", mock.Anything, mock.Anything)

	gate := appContact.NewGate(appContact.GateDI{
		Logger:     logger,
		Sanitizer:  appContact.NewSanitizer(),
		Validator:  appContact.NewValidator(),
		Captcha:    captcha,
		Limiter:    limiter,
		Dispatcher: dispatcher,
		Recorder:   recorder,
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, gate.Submit(context.Background(), input(validBody)), "submission %d", i+1)
	}
	err := gate.Submit(context.Background(), input(validBody))

	assert.Equal(t, domain.KindRateLimited, domain.KindOf(err))
	dispatcher.AssertNumberOfCalls(t, "SendNotification", 5)
	dispatcher.AssertNumberOfCalls(t, "SendConfirmation", 5)
	recorder.AssertNumberOfCalls(t, "Record", 1)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}
