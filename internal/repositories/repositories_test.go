package repositories

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rohits-web03/dnastore/internal/config"
	"github.com/rohits-web03/dnastore/internal/models"
)

func TestEscapeLike(t *testing.T) {
	tests := map[string]string{
		"GATTACA": "GATTACA",
		"50%":     `50\%`,
		"a_b":     `a\_b`,
		`back\`:   `back\\`,
		"":        "",
	}
	for in, want := range tests {
		if got := escapeLike(in); got != want {
			t.Errorf("escapeLike(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDistinctCreators(t *testing.T) {
	alice := &models.User{BenchlingID: "ent_a", Name: "Alice"}
	aliceAgain := &models.User{BenchlingID: "ent_a", Name: "Alice (dup)"}
	bob := &models.User{BenchlingID: "ent_b", Name: "Bob"}

	got := distinctCreators([]models.DNASequence{
		{BenchlingID: "s1", Creator: alice},
		{BenchlingID: "s2", Creator: bob},
		{BenchlingID: "s3", Creator: aliceAgain},
		{BenchlingID: "s4"},
	})

	if len(got) != 2 {
		t.Fatalf("expected 2 distinct creators, got %d: %+v", len(got), got)
	}
	if got[0].Name != "Alice" || got[1].BenchlingID != "ent_b" {
		t.Errorf("expected first occurrences in input order, got %+v", got)
	}
}

func TestArrayParams(t *testing.T) {
	arr := textArray([]string{"a", "b", "c"})
	if !arr.Valid || len(arr.Dims) != 1 || arr.Dims[0].Length != 3 || arr.Dims[0].LowerBound != 1 {
		t.Errorf("unexpected text array %+v", arr)
	}

	times := timeArray([]time.Time{time.Unix(0, 0)})
	if !times.Valid || times.Dims[0].Length != 1 {
		t.Errorf("unexpected time array %+v", times)
	}
}

func TestSQLState(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"})
	if got := SQLState(wrapped); got != "23503" {
		t.Errorf("expected 23503, got %q", got)
	}
	if got := SQLState(errors.New("boom")); got != "" {
		t.Errorf("expected empty state, got %q", got)
	}
}

type fakeObjectStore struct {
	puts    map[string][]byte
	putErr  error
	headErr error
}

func (f *fakeObjectStore) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, _ := io.ReadAll(in.Body)
	f.puts[aws.ToString(in.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectStore) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.puts[aws.ToString(in.Key)]; !ok {
		return nil, &s3types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

type fakePresigner struct{}

func (fakePresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return &v4.PresignedHTTPRequest{URL: "https://r2.example/" + aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)}, nil
}

func TestArchive(t *testing.T) {
	ctx := context.Background()
	store := &fakeObjectStore{puts: map[string][]byte{}}
	archive := &Archive{client: store, presigner: fakePresigner{}, bucket: "dna"}

	t.Run("PutAndExists", func(t *testing.T) {
		if err := archive.Put(ctx, 42, []byte(`[{"benchlingId":"s1"}]`)); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if string(store.puts["batches/42.json"]) != `[{"benchlingId":"s1"}]` {
			t.Errorf("unexpected stored payload %q", store.puts["batches/42.json"])
		}

		ok, err := archive.Exists(ctx, 42)
		if err != nil || !ok {
			t.Errorf("expected archived batch to exist, got %v, %v", ok, err)
		}
		ok, err = archive.Exists(ctx, 43)
		if err != nil || ok {
			t.Errorf("expected missing batch to report false without error, got %v, %v", ok, err)
		}
	})

	t.Run("HeadError", func(t *testing.T) {
		failing := &Archive{client: &fakeObjectStore{headErr: errors.New("forbidden")}, bucket: "dna"}
		if _, err := failing.Exists(ctx, 1); err == nil {
			t.Error("expected non-NotFound errors to propagate")
		}
	})

	t.Run("PutError", func(t *testing.T) {
		failing := &Archive{client: &fakeObjectStore{putErr: errors.New("unavailable")}, bucket: "dna"}
		if err := failing.Put(ctx, 7, []byte("[]")); err == nil || !strings.Contains(err.Error(), "batch 7") {
			t.Errorf("expected wrapped put error, got %v", err)
		}
	})

	t.Run("PresignGet", func(t *testing.T) {
		url, err := archive.PresignGet(ctx, 42, 15*time.Minute)
		if err != nil {
			t.Fatalf("PresignGet: %v", err)
		}
		if url != "https://r2.example/dna/batches/42.json" {
			t.Errorf("unexpected url %s", url)
		}
	})
}

func TestNewArchiveDisabledWithoutBucket(t *testing.T) {
	if a := NewArchive(config.R2Config{AccountID: "acct"}); a != nil {
		t.Error("expected nil archive without a bucket")
	}
	if a := NewArchive(config.R2Config{BucketName: "dna", Region: "auto", Endpoint: "http://localhost:9000"}); a == nil {
		t.Error("expected archive when bucket is configured")
	}
}
