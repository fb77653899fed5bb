package submission

import (
	"context"
	"encoding/json"

	"text2phenotype.com/sdoh/s3client"
)

type s3Transactions interface {
	saveSubmission(ctx context.Context, key string, submission Submission) error
}

type s3ClientWrapper struct {
	s3Client *s3client.Client
}

func (wrapper *s3ClientWrapper) saveSubmission(ctx context.Context, key string, submission Submission) error {
	b, err := json.Marshal(submission)
	if err != nil {
		return err
	}
	_, err = wrapper.s3Client.Upload(ctx, b, key)
	return err
}
