package source

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	gojson "github.com/goccy/go-json"

	"github.com/rlibre/x4grid/record"
)

// DynamoClient is the subset of *dynamodb.Client DynamoSource uses.
type DynamoClient interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

var _ DynamoClient = (*dynamodb.Client)(nil)

// DynamoSource scans a DynamoDB table into records.
type DynamoSource struct {
	client     DynamoClient
	table      string
	projection []string
	pageSize   int32
	opts       options
}

// DynamoOption configures a DynamoSource.
type DynamoOption func(*DynamoSource)

// WithProjection limits the scan to the named attributes.
func WithProjection(attrs ...string) DynamoOption {
	return func(s *DynamoSource) { s.projection = attrs }
}

// WithPageSize sets the Scan page limit.
func WithPageSize(n int32) DynamoOption {
	return func(s *DynamoSource) { s.pageSize = n }
}

// WithSourceOptions applies the shared source options.
func WithSourceOptions(opts ...Option) DynamoOption {
	return func(s *DynamoSource) { s.opts = applyOptions(opts) }
}

// NewDynamoSource returns a Source that scans table.
func NewDynamoSource(client DynamoClient, table string, opts ...DynamoOption) *DynamoSource {
	s := &DynamoSource{client: client, table: table, opts: applyOptions(nil)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns "dynamodb://<table>".
func (s *DynamoSource) Name() string { return "dynamodb://" + s.table }

// Fetch pages through a full table scan.
func (s *DynamoSource) Fetch(ctx context.Context) ([]record.Record, error) {
	rc := s.opts.controller
	if err := rc.AcquireFetch(ctx); err != nil {
		return nil, err
	}
	defer rc.ReleaseFetch()

	input := &dynamodb.ScanInput{TableName: aws.String(s.table)}
	if s.pageSize > 0 {
		input.Limit = aws.Int32(s.pageSize)
	}
	if len(s.projection) > 0 {
		names := make(map[string]string, len(s.projection))
		refs := make([]string, len(s.projection))
		for i, attr := range s.projection {
			ref := "#p" + strconv.Itoa(i)
			names[ref] = attr
			refs[i] = ref
		}
		input.ProjectionExpression = aws.String(strings.Join(refs, ", "))
		input.ExpressionAttributeNames = names
	}

	var out []record.Record
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", s.Name(), err)
		}
		for _, item := range page.Items {
			rec, err := itemToRecord(item)
			if err != nil {
				return nil, fmt.Errorf("source %s: %w", s.Name(), err)
			}
			out = append(out, rec)
		}
	}
	s.opts.logger.Debug("source: table scanned", "table", s.table, "records", len(out))
	return out, nil
}

func itemToRecord(item map[string]types.AttributeValue) (record.Record, error) {
	rec := make(record.Record, len(item))
	for name, av := range item {
		v, err := attributeValue(av)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		rec[name] = v
	}
	return rec, nil
}

// attributeValue maps DynamoDB types onto record values. Maps have no
// record kind and are carried as their JSON text.
func attributeValue(av types.AttributeValue) (record.Value, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return record.String(v.Value), nil
	case *types.AttributeValueMemberN:
		return parseNumber(v.Value)
	case *types.AttributeValueMemberBOOL:
		return record.Bool(v.Value), nil
	case *types.AttributeValueMemberNULL:
		return record.Null(), nil
	case *types.AttributeValueMemberB:
		return record.String(base64.StdEncoding.EncodeToString(v.Value)), nil
	case *types.AttributeValueMemberSS:
		arr := make([]record.Value, len(v.Value))
		for i, s := range v.Value {
			arr[i] = record.String(s)
		}
		return record.Array(arr), nil
	case *types.AttributeValueMemberNS:
		arr := make([]record.Value, len(v.Value))
		for i, s := range v.Value {
			n, err := parseNumber(s)
			if err != nil {
				return record.Value{}, err
			}
			arr[i] = n
		}
		return record.Array(arr), nil
	case *types.AttributeValueMemberL:
		arr := make([]record.Value, len(v.Value))
		for i, elem := range v.Value {
			ev, err := attributeValue(elem)
			if err != nil {
				return record.Value{}, err
			}
			arr[i] = ev
		}
		return record.Array(arr), nil
	case *types.AttributeValueMemberM:
		plain, err := plainMap(v.Value)
		if err != nil {
			return record.Value{}, err
		}
		b, err := gojson.Marshal(plain)
		if err != nil {
			return record.Value{}, err
		}
		return record.String(string(b)), nil
	default:
		return record.Value{}, fmt.Errorf("unsupported attribute type %T", av)
	}
}

func parseNumber(s string) (record.Value, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return record.Int(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return record.Value{}, fmt.Errorf("number %q: %w", s, err)
	}
	return record.Float(f), nil
}

func plainMap(m map[string]types.AttributeValue) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, av := range m {
		if nested, ok := av.(*types.AttributeValueMemberM); ok {
			pm, err := plainMap(nested.Value)
			if err != nil {
				return nil, err
			}
			out[k] = pm
			continue
		}
		v, err := attributeValue(av)
		if err != nil {
			return nil, err
		}
		out[k] = v.Interface()
	}
	return out, nil
}
