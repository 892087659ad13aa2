package s3store

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// fakeAPI records the last inputs and serves canned outputs.
type fakeAPI struct {
	putIn    *s3.PutObjectInput
	putErr   error
	putBody  []byte
	getOut   *s3.GetObjectOutput
	getErr   error
	tagIn    *s3.PutObjectTaggingInput
	tagErr   error
	untagIn  *s3.DeleteObjectTaggingInput
	untagErr error
}

func (f *fakeAPI) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putIn = in
	if in.Body != nil {
		f.putBody, _ = io.ReadAll(in.Body)
	}
	return &s3.PutObjectOutput{}, f.putErr
}

func (f *fakeAPI) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return f.getOut, f.getErr
}

func (f *fakeAPI) PutObjectTagging(ctx context.Context, in *s3.PutObjectTaggingInput, _ ...func(*s3.Options)) (*s3.PutObjectTaggingOutput, error) {
	f.tagIn = in
	return &s3.PutObjectTaggingOutput{}, f.tagErr
}

func (f *fakeAPI) DeleteObjectTagging(ctx context.Context, in *s3.DeleteObjectTaggingInput, _ ...func(*s3.Options)) (*s3.DeleteObjectTaggingOutput, error) {
	f.untagIn = in
	return &s3.DeleteObjectTaggingOutput{}, f.untagErr
}

func newTestStore(f *fakeAPI) *Store {
	return &Store{client: f, bucket: "assets", timeout: time.Second}
}

func TestAdd_ContentAddressedKey(t *testing.T) {
	f := &fakeAPI{}
	s := newTestStore(f)

	obj, err := s.Add(context.Background(), strings.NewReader("abc"), "whatever.txt")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	// key is derived from content, not from the declared name
	want := keyPrefix + "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if obj.ContentID != want {
		t.Errorf("content id = %s, want %s", obj.ContentID, want)
	}
	if obj.SizeBytes != 3 {
		t.Errorf("size = %d, want 3", obj.SizeBytes)
	}
	if string(f.putBody) != "abc" {
		t.Errorf("uploaded body = %q", f.putBody)
	}
	if *f.putIn.Bucket != "assets" {
		t.Errorf("bucket = %s", *f.putIn.Bucket)
	}
}

func TestAdd_SameBytesSameKey(t *testing.T) {
	f := &fakeAPI{}
	s := newTestStore(f)

	a, err := s.Add(context.Background(), strings.NewReader("same"), "a.bin")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Add(context.Background(), strings.NewReader("same"), "b.bin")
	if err != nil {
		t.Fatal(err)
	}
	if a.ContentID != b.ContentID {
		t.Errorf("keys differ for identical bytes: %s vs %s", a.ContentID, b.ContentID)
	}
}

// unseekableReader hides the Seeker of the wrapped reader.
type unseekableReader struct{ r io.Reader }

func (u unseekableReader) Read(p []byte) (int, error) { return u.r.Read(p) }

func TestAdd_BuffersUnseekableReaders(t *testing.T) {
	f := &fakeAPI{}
	s := newTestStore(f)

	obj, err := s.Add(context.Background(), unseekableReader{strings.NewReader("abc")}, "x")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if obj.SizeBytes != 3 {
		t.Errorf("size = %d, want 3", obj.SizeBytes)
	}
	if string(f.putBody) != "abc" {
		t.Errorf("uploaded body = %q", f.putBody)
	}
}

func TestAdd_PutFailure(t *testing.T) {
	f := &fakeAPI{putErr: errors.New("connection refused")}
	s := newTestStore(f)

	if _, err := s.Add(context.Background(), strings.NewReader("x"), "x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestCat(t *testing.T) {
	f := &fakeAPI{getOut: &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("stored"))}}
	s := newTestStore(f)

	rc, err := s.Cat(context.Background(), keyPrefix+"deadbeef")
	if err != nil {
		t.Fatalf("Cat: %v", err)
	}
	defer rc.Close()

	got, _ := io.ReadAll(rc)
	if string(got) != "stored" {
		t.Errorf("cat = %q", got)
	}
}

func TestPin_SetsRetentionTag(t *testing.T) {
	f := &fakeAPI{}
	s := newTestStore(f)

	if err := s.Pin(context.Background(), "objects/abc"); err != nil {
		t.Fatalf("Pin: %v", err)
	}
	if f.tagIn == nil || len(f.tagIn.Tagging.TagSet) != 1 {
		t.Fatal("expected one tag to be set")
	}
	tag := f.tagIn.Tagging.TagSet[0]
	if *tag.Key != pinTagKey || *tag.Value != "true" {
		t.Errorf("tag = %s=%s", *tag.Key, *tag.Value)
	}
}

func TestUnpin_RemovesTag(t *testing.T) {
	f := &fakeAPI{}
	s := newTestStore(f)

	if err := s.Unpin(context.Background(), "objects/abc"); err != nil {
		t.Fatalf("Unpin: %v", err)
	}
	if f.untagIn == nil || *f.untagIn.Key != "objects/abc" {
		t.Fatal("expected delete-tagging call for the object key")
	}
}

func TestPin_Failure(t *testing.T) {
	f := &fakeAPI{tagErr: errors.New("tagging disabled")}
	s := newTestStore(f)

	if err := s.Pin(context.Background(), "objects/abc"); err == nil {
		t.Fatal("expected error")
	}
}
