package dynamostore

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dmehra2102/prod-golang-projects/order-ingestor/internal/domain"
)

// marshalOrder converts a decoded JSON object into a DynamoDB item. Numbers
// are written from their original text so no precision is lost.
func marshalOrder(order domain.Order) (map[string]types.AttributeValue, error) {
	item := make(map[string]types.AttributeValue, len(order))
	for k, v := range order {
		av, err := marshalValue(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		item[k] = av
	}
	return item, nil
}

func marshalValue(v any) (types.AttributeValue, error) {
	switch v := v.(type) {
	case nil:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case string:
		return &types.AttributeValueMemberS{Value: v}, nil
	case bool:
		return &types.AttributeValueMemberBOOL{Value: v}, nil
	case json.Number:
		return &types.AttributeValueMemberN{Value: v.String()}, nil
	case map[string]any:
		return marshalMap(v)
	case []any:
		list := make([]types.AttributeValue, 0, len(v))
		for i, elem := range v {
			av, err := marshalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			list = append(list, av)
		}
		return &types.AttributeValueMemberL{Value: list}, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func marshalMap(m map[string]any) (types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, len(m))
	for k, elem := range m {
		av, err := marshalValue(elem)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out[k] = av
	}
	return &types.AttributeValueMemberM{Value: out}, nil
}

// unmarshalOrder is the inverse of marshalOrder for items this service wrote.
// Attributes written by other tools are mapped onto JSON kinds: binary
// becomes a base64 string and string or number sets become lists.
func unmarshalOrder(item map[string]types.AttributeValue) (domain.Order, error) {
	order := make(domain.Order, len(item))
	for k, av := range item {
		v, err := unmarshalValue(av)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		order[k] = v
	}
	return order, nil
}

func unmarshalValue(av types.AttributeValue) (any, error) {
	switch av := av.(type) {
	case *types.AttributeValueMemberNULL:
		return nil, nil
	case *types.AttributeValueMemberS:
		return av.Value, nil
	case *types.AttributeValueMemberBOOL:
		return av.Value, nil
	case *types.AttributeValueMemberN:
		return json.Number(av.Value), nil
	case *types.AttributeValueMemberB:
		return base64.StdEncoding.EncodeToString(av.Value), nil
	case *types.AttributeValueMemberM:
		m := make(map[string]any, len(av.Value))
		for k, elem := range av.Value {
			v, err := unmarshalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			m[k] = v
		}
		return m, nil
	case *types.AttributeValueMemberL:
		list := make([]any, 0, len(av.Value))
		for i, elem := range av.Value {
			v, err := unmarshalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			list = append(list, v)
		}
		return list, nil
	case *types.AttributeValueMemberSS:
		list := make([]any, 0, len(av.Value))
		for _, s := range av.Value {
			list = append(list, s)
		}
		return list, nil
	case *types.AttributeValueMemberNS:
		list := make([]any, 0, len(av.Value))
		for _, n := range av.Value {
			list = append(list, json.Number(n))
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unsupported attribute type %T", av)
	}
}
