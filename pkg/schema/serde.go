package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/sr"
)

var ErrTooFewOpts = errors.New("too few options")

// Serde writes and reads values framed with the registry wire header:
// a zero magic byte and the big endian schema id.
type Serde interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

var _ Serde = (*AvroSerde)(nil)

// An AvroSerde is bound to one registered Avro schema and one Go type.
type AvroSerde struct {
	id      int
	subject string
	schema  avro.Schema
	frame   sr.Serde
}

// ID is the registry id stamped on every encoded value.
func (s *AvroSerde) ID() int {
	return s.id
}

func (s *AvroSerde) Subject() string {
	return s.subject
}

func (s *AvroSerde) Encode(v any) ([]byte, error) {
	return s.frame.Encode(v)
}

// Decode rejects data framed with another schema id with
// [sr.ErrNotRegistered].
func (s *AvroSerde) Decode(data []byte, v any) error {
	return s.frame.Decode(data, v)
}

type Opt func(*serdeOpts) error

type serdeOpts struct {
	subject string
	si      SchemaIdentifier
}

func (o serdeOpts) missing() error {
	var errs []error
	if o.subject == "" {
		errs = append(errs, errors.New("subject option is missing"))
	}
	if o.si == nil {
		errs = append(errs, errors.New("schema identifier option is missing"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTooFewOpts, errors.Join(errs...))
}

func SubjectOpt(subject string) Opt {
	return func(so *serdeOpts) error {
		if subject == "" {
			return errors.New("subject is empty string")
		}
		so.subject = subject
		return nil
	}
}

func SchemaIdentifierOpt(si SchemaIdentifier) Opt {
	return func(so *serdeOpts) error {
		if si == nil {
			return errors.New("schema identifier is nil")
		}
		so.si = si
		return nil
	}
}

// NewSerdeOrderEventV1 registers [OrderEventSchemaTextV1] under the
// subject and binds it to [OrderEventV1].
func NewSerdeOrderEventV1(ctx context.Context, opts ...Opt) (*AvroSerde, error) {
	const op = "NewSerdeOrderEventV1"

	s, err := newAvroSerde(ctx, OrderEventSchemaTextV1, OrderEventV1{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func newAvroSerde(
	ctx context.Context, schemaText string, example any, opts []Opt,
) (*AvroSerde, error) {
	var so serdeOpts
	for _, o := range opts {
		if err := o(&so); err != nil {
			return nil, err
		}
	}
	if err := so.missing(); err != nil {
		return nil, err
	}

	schema, err := avro.Parse(schemaText)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	id, err := so.si.DetermineID(ctx, so.subject, schemaText)
	if err != nil {
		return nil, fmt.Errorf("determine schema id of %q: %w", so.subject, err)
	}

	s := &AvroSerde{id: id, subject: so.subject, schema: schema}
	s.frame.Register(
		id,
		example,
		sr.EncodeFn(func(v any) ([]byte, error) {
			return avro.Marshal(schema, v)
		}),
		sr.DecodeFn(func(data []byte, v any) error {
			return avro.Unmarshal(schema, data, v)
		}),
	)
	return s, nil
}
