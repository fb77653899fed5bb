package submission

import (
	"context"
	"errors"

	"text2phenotype.com/sdoh/screenings"
)

type failingMethod struct {
	fail bool
}

type screeningsMock struct {
	config screeningsMockConfig
	calls  screeningsMockCalls
}

type screeningsMockConfig struct {
	complete        failingMethod
	record          screenings.Record
	alreadyComplete bool
	panicOnComplete bool
}

type screeningsMockCalls struct {
	complete bool
	accept   bool
}

type s3Mock struct {
	config s3MockConfig
	calls  s3MockCalls
	saved  []string
}

type s3MockConfig struct {
	saveSubmission failingMethod
}

type s3MockCalls struct {
	saveSubmission bool
}

type rmqMock struct {
	config    rmqMockConfig
	calls     rmqMockCalls
	published []Event
}

type rmqMockConfig struct {
	publishEvent failingMethod
}

type rmqMockCalls struct {
	publishEvent bool
}

func (mock *screeningsMock) complete(
	_ context.Context,
	_ string,
	accept func(*screenings.Record) error) (*screenings.Record, bool, error) {
	mock.calls.complete = true
	if mock.config.panicOnComplete {
		panic("connection pool exhausted")
	}
	if mock.config.complete.fail {
		return nil, false, errors.New("redis unavailable")
	}
	record := mock.config.record
	if mock.config.alreadyComplete {
		return &record, false, nil
	}
	mock.calls.accept = true
	if err := accept(&record); err != nil {
		return nil, false, err
	}
	return &record, true, nil
}

func (mock *s3Mock) saveSubmission(_ context.Context, key string, _ Submission) error {
	mock.calls.saveSubmission = true
	if mock.config.saveSubmission.fail {
		return errors.New("access denied")
	}
	mock.saved = append(mock.saved, key)
	return nil
}

func (mock *rmqMock) publishEvent(event Event) error {
	mock.calls.publishEvent = true
	if mock.config.publishEvent.fail {
		return errors.New("channel closed")
	}
	mock.published = append(mock.published, event)
	return nil
}
