package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlibre/x4grid/blobstore"
	"github.com/rlibre/x4grid/codec"
	"github.com/rlibre/x4grid/record"
	"github.com/rlibre/x4grid/resource"
)

func ids(recs []record.Record) []int64 {
	out := make([]int64, len(recs))
	for i, r := range recs {
		out[i], _ = r["id"].AsInt64()
	}
	return out
}

func TestBlobSource(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	payload := []byte(`[{"id":1,"name":"alice"},{"id":2,"name":"bob"}]`)

	packed, err := codec.Compress(payload, codec.CompressionZSTD)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "people.json", payload))
	require.NoError(t, store.Put(ctx, "people.json.zst", packed))

	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 20})

	for _, name := range []string{"people.json", "people.json.zst"} {
		t.Run(name, func(t *testing.T) {
			src := NewBlobSource(store, name, WithController(rc), WithCodec(codec.JSON{}))
			assert.Equal(t, name, src.Name())

			recs, err := src.Fetch(ctx)
			require.NoError(t, err)
			assert.Equal(t, []int64{1, 2}, ids(recs))
			assert.Equal(t, "bob", recs[1]["name"].StringValue())
			assert.Zero(t, rc.MemoryUsage())
		})
	}

	_, err = NewBlobSource(store, "missing.json").Fetch(ctx)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, store.Put(ctx, "bad.json", []byte(`"x"`)))
	_, err = NewBlobSource(store, "bad.json").Fetch(ctx)
	assert.ErrorIs(t, err, codec.ErrPayload)
}

func TestBlobSourceOverMemoryLimit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "p.json", []byte(`[{"id":1,"name":"alice"},{"id":2}]`)))

	rc := resource.NewController(resource.Config{MemoryLimitBytes: 8})
	_, err := NewBlobSource(store, "p.json", WithController(rc)).Fetch(ctx)
	require.ErrorIs(t, err, resource.ErrMemoryLimit)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, rc.MemoryUsage())
}

func TestBlobSources(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "batch/2.json", []byte(`[{"id":2}]`)))
	require.NoError(t, store.Put(ctx, "batch/1.json", []byte(`[{"id":1}]`)))
	require.NoError(t, store.Put(ctx, "other.json", []byte(`[{"id":9}]`)))

	srcs, err := BlobSources(ctx, store, "batch/")
	require.NoError(t, err)
	require.Len(t, srcs, 2)

	recs, err := NewLoader(srcs).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids(recs))
}

func TestReaderSource(t *testing.T) {
	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})
	src := NewReaderSource("stdin", strings.NewReader("{\"id\":1}\n{\"id\":2}\n"), WithController(rc))

	recs, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids(recs))

	recs[0]["id"] = record.Int(99)
	again, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids(again))
}

func TestStatic(t *testing.T) {
	base := []record.Record{{"id": record.Int(1)}}
	src := NewStatic("fixed", base)

	recs, err := src.Fetch(context.Background())
	require.NoError(t, err)
	recs[0]["id"] = record.Int(5)
	assert.Equal(t, int64(1), base[0]["id"].I64)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeDynamo struct {
	pages []*dynamodb.ScanOutput
	calls []*dynamodb.ScanInput
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.calls = append(f.calls, in)
	if len(f.calls) > len(f.pages) {
		return nil, errors.New("unexpected scan")
	}
	return f.pages[len(f.calls)-1], nil
}

func TestDynamoSource(t *testing.T) {
	client := &fakeDynamo{pages: []*dynamodb.ScanOutput{
		{
			Items: []map[string]types.AttributeValue{{
				"id":     &types.AttributeValueMemberN{Value: "1"},
				"name":   &types.AttributeValueMemberS{Value: "alice"},
				"score":  &types.AttributeValueMemberN{Value: "2.5"},
				"active": &types.AttributeValueMemberBOOL{Value: true},
				"tags":   &types.AttributeValueMemberSS{Value: []string{"a", "b"}},
			}},
			LastEvaluatedKey: map[string]types.AttributeValue{"id": &types.AttributeValueMemberN{Value: "1"}},
		},
		{
			Items: []map[string]types.AttributeValue{{
				"id":    &types.AttributeValueMemberN{Value: "2"},
				"name":  &types.AttributeValueMemberNULL{Value: true},
				"attrs": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{"k": &types.AttributeValueMemberS{Value: "v"}}},
				"list":  &types.AttributeValueMemberL{Value: []types.AttributeValue{&types.AttributeValueMemberN{Value: "3"}}},
			}},
		},
	}}

	src := NewDynamoSource(client, "people", WithProjection("id", "name"), WithPageSize(1))
	assert.Equal(t, "dynamodb://people", src.Name())

	recs, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Len(t, client.calls, 2)

	first := client.calls[0]
	assert.Equal(t, "people", aws.ToString(first.TableName))
	assert.Equal(t, int32(1), aws.ToInt32(first.Limit))
	assert.Equal(t, "#p0, #p1", aws.ToString(first.ProjectionExpression))
	assert.Equal(t, map[string]string{"#p0": "id", "#p1": "name"}, first.ExpressionAttributeNames)
	assert.NotNil(t, client.calls[1].ExclusiveStartKey)

	assert.Equal(t, []int64{1, 2}, ids(recs))
	assert.Equal(t, record.KindFloat, recs[0]["score"].Kind)
	assert.True(t, recs[0]["active"].B)
	tags, ok := recs[0]["tags"].AsArray()
	require.True(t, ok)
	assert.Len(t, tags, 2)

	assert.True(t, recs[1]["name"].IsNull())
	assert.JSONEq(t, `{"k":"v"}`, recs[1]["attrs"].StringValue())
	list, ok := recs[1]["list"].AsArray()
	require.True(t, ok)
	assert.Equal(t, record.Int(3), list[0])
}

type failing struct{}

func (failing) Fetch(context.Context) ([]record.Record, error) { return nil, errors.New("boom") }
func (failing) Name() string                                   { return "failing" }

type recordingObserver struct {
	mu    sync.Mutex
	loads map[string]int
	errs  int
}

func (o *recordingObserver) OnLoad(src string, n int, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.loads == nil {
		o.loads = map[string]int{}
	}
	o.loads[src] = n
	if err != nil {
		o.errs++
	}
}

func TestLoader(t *testing.T) {
	a := NewStatic("a", []record.Record{{"id": record.Int(1)}, {"id": record.Int(2), "v": record.String("old")}})
	b := NewStatic("b", []record.Record{{"id": record.Int(2), "v": record.String("new")}, {"id": record.Int(3)}, {"x": record.Int(0)}})

	t.Run("Concat", func(t *testing.T) {
		obs := &recordingObserver{}
		recs, err := NewLoader([]Source{a, b}, WithObserver(obs)).Load(context.Background())
		require.NoError(t, err)
		assert.Len(t, recs, 5)
		assert.Equal(t, map[string]int{"a": 2, "b": 3}, obs.loads)
	})

	t.Run("Dedupe", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MaxConcurrentFetches: 1})
		recs, err := NewLoader([]Source{a, b}, WithDedupe("id"), WithLoaderOptions(WithController(rc))).Load(context.Background())
		require.NoError(t, err)
		require.Len(t, recs, 4)
		assert.Equal(t, []int64{1, 2, 3, 0}, ids(recs))
		assert.Equal(t, "new", recs[1]["v"].StringValue())
	})

	t.Run("DedupeNormalized", func(t *testing.T) {
		schema := record.MustSchema("id", record.FieldDescriptor{Name: "id", Type: record.FieldTypeInt})
		c := NewStatic("c", []record.Record{{"id": record.String("2"), "v": record.String("newest")}})
		recs, err := NewLoader([]Source{a, b, c}, WithSchema(schema), WithDedupe("id")).Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 3, 0, 2}, ids(recs))
		assert.Equal(t, record.KindInt, recs[3]["id"].Kind)
		assert.Equal(t, "newest", recs[3]["v"].StringValue())
	})

	t.Run("Failure", func(t *testing.T) {
		obs := &recordingObserver{}
		_, err := NewLoader([]Source{a, failing{}}, WithObserver(obs)).Load(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failing")
		assert.GreaterOrEqual(t, obs.errs, 1)
	})
}

func TestLocationOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "people.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":7}]`), 0o600))

	for _, raw := range []string{path, "file://" + filepath.ToSlash(path)} {
		src, err := Location{}.Open(ctx, raw)
		require.NoError(t, err)
		recs, err := src.Fetch(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{7}, ids(recs))
	}

	src, err := Location{}.Open(ctx, "-")
	require.NoError(t, err)
	assert.Equal(t, "stdin", src.Name())

	_, err = Location{}.Open(ctx, "ftp://host/file.json")
	assert.ErrorIs(t, err, ErrUnsupportedURL)

	_, err = Location{}.Open(ctx, "minio://localhost:9000/bucket-only")
	assert.ErrorIs(t, err, ErrUnsupportedURL)
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "people.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))

	w, err := NewWatcher(path, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.json"), []byte(`[]`), 0o600))
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1}]`), 0o600))
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1},{"id":2}]`), 0o600))

	select {
	case <-w.C():
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
