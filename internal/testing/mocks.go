package testing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/aristath/horizon/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// MockS3Client is an in-memory S3 client covering uploads (single and multipart) and downloads
type MockS3Client struct {
	mu       sync.RWMutex
	objects  map[string][]byte
	uploads  map[string]map[int32][]byte
	nextID   int
	putCalls int
	err      error
}

// NewMockS3Client creates an empty mock S3 client
func NewMockS3Client() *MockS3Client {
	return &MockS3Client{
		objects: make(map[string][]byte),
		uploads: make(map[string]map[int32][]byte),
	}
}

// SetError makes every subsequent call fail with err
func (m *MockS3Client) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Object returns the stored bytes of bucket/key
func (m *MockS3Client) Object(bucket, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[bucket+"/"+key]
	return data, ok
}

// Keys returns every stored bucket/key, sorted
func (m *MockS3Client) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PutCalls returns how many single part uploads were made
func (m *MockS3Client) PutCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.putCalls
}

// PutObject stores the body under bucket/key
func (m *MockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := readBody(params.Body)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.putCalls++
	m.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

// GetObject returns the body stored under bucket/key, or NoSuchKey
func (m *MockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	data, ok := m.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

// CreateMultipartUpload starts a multipart upload
func (m *MockS3Client) CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.nextID++
	id := fmt.Sprintf("upload-%d", m.nextID)
	m.uploads[id] = make(map[int32][]byte)
	return &s3.CreateMultipartUploadOutput{
		Bucket:   params.Bucket,
		Key:      params.Key,
		UploadId: aws.String(id),
	}, nil
}

// UploadPart stores one part of a multipart upload
func (m *MockS3Client) UploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	data, err := readBody(params.Body)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	parts, ok := m.uploads[aws.ToString(params.UploadId)]
	if !ok {
		return nil, fmt.Errorf("unknown upload %s", aws.ToString(params.UploadId))
	}
	number := aws.ToInt32(params.PartNumber)
	parts[number] = data
	return &s3.UploadPartOutput{ETag: aws.String(fmt.Sprintf("etag-%d", number))}, nil
}

// CompleteMultipartUpload joins the uploaded parts into the final object
func (m *MockS3Client) CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	id := aws.ToString(params.UploadId)
	parts, ok := m.uploads[id]
	if !ok {
		return nil, fmt.Errorf("unknown upload %s", id)
	}

	numbers := make([]int, 0, len(parts))
	for n := range parts {
		numbers = append(numbers, int(n))
	}
	sort.Ints(numbers)

	var buf bytes.Buffer
	for _, n := range numbers {
		buf.Write(parts[int32(n)])
	}
	delete(m.uploads, id)
	m.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)] = buf.Bytes()
	return &s3.CompleteMultipartUploadOutput{Bucket: params.Bucket, Key: params.Key}, nil
}

// AbortMultipartUpload discards a multipart upload
func (m *MockS3Client) AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.uploads, aws.ToString(params.UploadId))
	return &s3.AbortMultipartUploadOutput{}, nil
}

func readBody(body io.Reader) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	return io.ReadAll(body)
}

// MockBackend is an in-memory object backend that can fail selected keys
type MockBackend struct {
	mu       sync.RWMutex
	objects  map[string][]byte
	failKeys []string
}

// NewMockBackend creates an empty mock backend
func NewMockBackend() *MockBackend {
	return &MockBackend{objects: make(map[string][]byte)}
}

// FailKeysContaining makes Put fail for every key containing one of the fragments
func (m *MockBackend) FailKeysContaining(fragments ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failKeys = append(m.failKeys, fragments...)
}

// Keys returns every stored key, sorted
func (m *MockBackend) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Put stores data unless the key is configured to fail
func (m *MockBackend) Put(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, fragment := range m.failKeys {
		if strings.Contains(key, fragment) {
			return fmt.Errorf("%w: injected failure for %s", domain.ErrStorage, key)
		}
	}
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

// Get returns the stored data or domain.ErrNotFound
func (m *MockBackend) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	return data, nil
}

// Describe names the backend
func (m *MockBackend) Describe() string {
	return "memory"
}
