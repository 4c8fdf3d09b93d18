// Copyright (c) Fluxline
// SPDX-License-Identifier: Apache-2.0

// Package s3 provides the raw-archive sink: the original payload stored
// under a date-partitioned key derived from the idempotency key.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	errs "github.com/fluxline/fanout/pkg/errors"
	"github.com/fluxline/fanout/pkg/telemetry"
	"github.com/fluxline/fanout/processor"
)

const (
	contentType = "application/json"
	datePartFmt = "2006/01/02"
)

var errSaveObject = errs.New("failed to save raw payload to archive")

// API codes that will not self-resolve.
var permanentCodes = map[string]bool{
	"AccessDenied":          true,
	"InvalidAccessKeyId":    true,
	"SignatureDoesNotMatch": true,
	"NoSuchBucket":          true,
	"QuotaExceeded":         true,
	"ServiceQuotaExceeded":  true,
	"InvalidBucketName":     true,
	"KeyTooLongError":       true,
	"EntityTooLarge":        true,
	"AccountProblem":        true,
	"AllAccessDisabled":     true,
	"NotSignedUp":           true,
	"InvalidObjectState":    true,
	"MalformedACLError":     true,
	"InvalidPayer":          true,
}

var _ processor.ArchiveWriter = (*archiveRepo)(nil)

type archiveRepo struct {
	client *awss3.Client
	bucket string
}

// New returns an S3 archive writer. Objects are partitioned by ingestion
// date for lifecycle management; overwriting a key with identical content
// is a no-op from the reader's perspective, which gives idempotency under
// redelivery.
func New(client *awss3.Client, bucket string) processor.ArchiveWriter {
	return &archiveRepo{
		client: client,
		bucket: bucket,
	}
}

func (repo *archiveRepo) Archive(ctx context.Context, rec telemetry.Record, key string, payload []byte) error {
	objectKey := fmt.Sprintf("raw/%s/%s/%s.json",
		rec.DeviceID,
		time.UnixMilli(rec.Timestamp).UTC().Format(datePartFmt),
		key,
	)

	_, err := repo.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(repo.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return classify(errs.Wrap(errSaveObject, err), err)
	}

	return nil
}

// classify maps a storage error to the coordinator's failure classes.
// Authorization and quota rejections will not self-heal; anything else,
// including throttling and network errors, may resolve on redelivery.
func classify(wrapped, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && permanentCodes[apiErr.ErrorCode()] {
		return errs.Wrap(processor.ErrPermanent, wrapped)
	}

	return errs.Wrap(processor.ErrTransient, wrapped)
}
