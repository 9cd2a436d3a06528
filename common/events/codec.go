package events

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Envelopes use the protobuf wire format with one fixed field table per kind.
// Fields 1-3 hold Metadata and field 15 the kind name in every schema; entity
// fields start at 4. Unknown field numbers are skipped on decode, and zero
// values are omitted on encode except for optional fields that are set.
type fieldNum = protowire.Number

const (
	fieldEventID        fieldNum = 1
	fieldEventTimestamp fieldNum = 2
	fieldActor          fieldNum = 3
	fieldKind           fieldNum = 15
)

var errWireType = errors.New("unexpected wire type")

// Marshal encodes env.
func Marshal(env Envelope) ([]byte, error) {
	if err := env.validate(); err != nil {
		return nil, err
	}

	e := &encoder{}
	e.str(fieldKind, string(env.Kind()))
	m := env.Meta()
	e.str(fieldEventID, m.EventID)
	e.str(fieldEventTimestamp, m.EventTimestamp)
	e.str(fieldActor, m.Actor)
	env.appendFields(e)
	return e.b, nil
}

// Unmarshal decodes data into env. Every failure wraps ErrDecode: truncated or
// malformed wire data, a payload of another kind, or a missing primary id.
func Unmarshal(data []byte, env Envelope) error {
	var kind string
	m := env.Meta()

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrDecode, protowire.ParseError(n))
		}
		data = data[n:]

		r := &fieldReader{typ: typ, buf: data}
		known := true
		var err error
		switch num {
		case fieldKind:
			kind, err = r.str()
		case fieldEventID:
			m.EventID, err = r.str()
		case fieldEventTimestamp:
			m.EventTimestamp, err = r.str()
		case fieldActor:
			m.Actor, err = r.str()
		default:
			known, err = env.readField(num, r)
		}
		if err != nil {
			return fmt.Errorf("%w: field %d: %v", ErrDecode, num, err)
		}

		if !known {
			skip := protowire.ConsumeFieldValue(num, typ, data)
			if skip < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrDecode, num, protowire.ParseError(skip))
			}
			r.n = skip
		}
		data = data[r.n:]
	}

	if Kind(kind) != env.Kind() {
		return fmt.Errorf("%w: expected %s envelope, got %q", ErrDecode, env.Kind(), kind)
	}
	if err := env.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// PeekKind returns the kind name of an encoded envelope without decoding it.
func PeekKind(data []byte) (Kind, error) {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return "", fmt.Errorf("%w: %v", ErrDecode, protowire.ParseError(n))
		}
		data = data[n:]
		if num == fieldKind {
			r := &fieldReader{typ: typ, buf: data}
			s, err := r.str()
			if err != nil {
				return "", fmt.Errorf("%w: kind: %v", ErrDecode, err)
			}
			return Kind(s), nil
		}
		skip := protowire.ConsumeFieldValue(num, typ, data)
		if skip < 0 {
			return "", fmt.Errorf("%w: %v", ErrDecode, protowire.ParseError(skip))
		}
		data = data[skip:]
	}
	return "", fmt.Errorf("%w: no kind field", ErrDecode)
}

type encoder struct {
	b []byte
}

func (e *encoder) str(num fieldNum, v string) {
	if v == "" {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendString(e.b, v)
}

func (e *encoder) int64(num fieldNum, v int64) {
	if v == 0 {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, uint64(v))
}

// optInt64 writes v whenever it is set, zero included.
func (e *encoder) optInt64(num fieldNum, v *int64) {
	if v == nil {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, uint64(*v))
}

// optSint writes a zigzag varint whenever v is set.
func (e *encoder) optSint(num fieldNum, v *int) {
	if v == nil {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, protowire.EncodeZigZag(int64(*v)))
}

func (e *encoder) double(num fieldNum, v float64) {
	if v == 0 && !math.Signbit(v) {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.Fixed64Type)
	e.b = protowire.AppendFixed64(e.b, math.Float64bits(v))
}

type fieldReader struct {
	typ protowire.Type
	buf []byte
	n   int
}

func (r *fieldReader) str() (string, error) {
	if r.typ != protowire.BytesType {
		return "", errWireType
	}
	v, n := protowire.ConsumeString(r.buf)
	if n < 0 {
		return "", protowire.ParseError(n)
	}
	r.n = n
	return v, nil
}

func (r *fieldReader) int64() (int64, error) {
	if r.typ != protowire.VarintType {
		return 0, errWireType
	}
	v, n := protowire.ConsumeVarint(r.buf)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	r.n = n
	return int64(v), nil
}

func (r *fieldReader) sint() (int, error) {
	v, err := r.int64()
	if err != nil {
		return 0, err
	}
	return int(protowire.DecodeZigZag(uint64(v))), nil
}

func (r *fieldReader) double() (float64, error) {
	if r.typ != protowire.Fixed64Type {
		return 0, errWireType
	}
	v, n := protowire.ConsumeFixed64(r.buf)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	r.n = n
	return math.Float64frombits(v), nil
}

// BorrowerCreated: 4 borrower_id, 5 first_name, 6 last_name, 7 email, 8 phone,
// 9 national_id, 10 date_of_birth, 11 address_line1, 12 address_line2, 13 city,
// 14 state, 16 postal_code, 17 country, 18 annual_income, 19 employment_status,
// 20 employment_years (zigzag, optional), 21 created_at.
func (e *BorrowerCreated) appendFields(enc *encoder) {
	enc.int64(4, e.BorrowerID)
	enc.str(5, e.FirstName)
	enc.str(6, e.LastName)
	enc.str(7, e.Email)
	enc.str(8, e.Phone)
	enc.str(9, e.NationalID)
	enc.str(10, e.DateOfBirth)
	enc.str(11, e.AddressLine1)
	enc.str(12, e.AddressLine2)
	enc.str(13, e.City)
	enc.str(14, e.State)
	enc.str(16, e.PostalCode)
	enc.str(17, e.Country)
	enc.double(18, e.AnnualIncome)
	enc.str(19, e.EmploymentStatus)
	enc.optSint(20, e.EmploymentYears)
	enc.str(21, e.CreatedAt)
}

func (e *BorrowerCreated) readField(num fieldNum, r *fieldReader) (bool, error) {
	var err error
	switch num {
	case 4:
		e.BorrowerID, err = r.int64()
	case 5:
		e.FirstName, err = r.str()
	case 6:
		e.LastName, err = r.str()
	case 7:
		e.Email, err = r.str()
	case 8:
		e.Phone, err = r.str()
	case 9:
		e.NationalID, err = r.str()
	case 10:
		e.DateOfBirth, err = r.str()
	case 11:
		e.AddressLine1, err = r.str()
	case 12:
		e.AddressLine2, err = r.str()
	case 13:
		e.City, err = r.str()
	case 14:
		e.State, err = r.str()
	case 16:
		e.PostalCode, err = r.str()
	case 17:
		e.Country, err = r.str()
	case 18:
		e.AnnualIncome, err = r.double()
	case 19:
		e.EmploymentStatus, err = r.str()
	case 20:
		var years int
		if years, err = r.sint(); err == nil {
			e.EmploymentYears = &years
		}
	case 21:
		e.CreatedAt, err = r.str()
	default:
		return false, nil
	}
	return true, err
}

// LoanApplicationEvent: 4 application_id, 5 borrower_id, 6 loan_amount,
// 7 term_months, 8 interest_rate, 9 monthly_payment, 10 total_payment,
// 11 status, 12 purpose, 13 created_at.
func (e *LoanApplicationEvent) appendFields(enc *encoder) {
	enc.int64(4, e.ApplicationID)
	enc.int64(5, e.BorrowerID)
	enc.double(6, e.LoanAmount)
	enc.int64(7, int64(e.TermMonths))
	enc.double(8, e.InterestRate)
	enc.double(9, e.MonthlyPayment)
	enc.double(10, e.TotalPayment)
	enc.str(11, e.Status)
	enc.str(12, e.Purpose)
	enc.str(13, e.CreatedAt)
}

func (e *LoanApplicationEvent) readField(num fieldNum, r *fieldReader) (bool, error) {
	var err error
	switch num {
	case 4:
		e.ApplicationID, err = r.int64()
	case 5:
		e.BorrowerID, err = r.int64()
	case 6:
		e.LoanAmount, err = r.double()
	case 7:
		var term int64
		term, err = r.int64()
		e.TermMonths = int(term)
	case 8:
		e.InterestRate, err = r.double()
	case 9:
		e.MonthlyPayment, err = r.double()
	case 10:
		e.TotalPayment, err = r.double()
	case 11:
		e.Status, err = r.str()
	case 12:
		e.Purpose, err = r.str()
	case 13:
		e.CreatedAt, err = r.str()
	default:
		return false, nil
	}
	return true, err
}

// DocumentUploaded: 4 document_id, 5 borrower_id, 6 application_id (optional),
// 7 document_type, 8 file_name, 9 content_type, 10 size_bytes, 11 storage_path,
// 12 status, 13 uploaded_at.
func (e *DocumentUploaded) appendFields(enc *encoder) {
	enc.int64(4, e.DocumentID)
	enc.int64(5, e.BorrowerID)
	enc.optInt64(6, e.ApplicationID)
	enc.str(7, e.DocumentType)
	enc.str(8, e.FileName)
	enc.str(9, e.ContentType)
	enc.int64(10, e.SizeBytes)
	enc.str(11, e.StoragePath)
	enc.str(12, e.Status)
	enc.str(13, e.UploadedAt)
}

func (e *DocumentUploaded) readField(num fieldNum, r *fieldReader) (bool, error) {
	var err error
	switch num {
	case 4:
		e.DocumentID, err = r.int64()
	case 5:
		e.BorrowerID, err = r.int64()
	case 6:
		var id int64
		if id, err = r.int64(); err == nil {
			e.ApplicationID = &id
		}
	case 7:
		e.DocumentType, err = r.str()
	case 8:
		e.FileName, err = r.str()
	case 9:
		e.ContentType, err = r.str()
	case 10:
		e.SizeBytes, err = r.int64()
	case 11:
		e.StoragePath, err = r.str()
	case 12:
		e.Status, err = r.str()
	case 13:
		e.UploadedAt, err = r.str()
	default:
		return false, nil
	}
	return true, err
}

// Status updates: 4 entity id, then StatusChange at 5 borrower_id, 6 old_status,
// 7 new_status, 8 updated_by, 9 updated_at, 10 rejection_reason.
func (s *StatusChange) appendFields(enc *encoder) {
	enc.int64(5, s.BorrowerID)
	enc.str(6, s.OldStatus)
	enc.str(7, s.NewStatus)
	enc.str(8, s.UpdatedBy)
	enc.str(9, s.UpdatedAt)
	enc.str(10, s.RejectionReason)
}

func (s *StatusChange) readField(num fieldNum, r *fieldReader) (bool, error) {
	var err error
	switch num {
	case 5:
		s.BorrowerID, err = r.int64()
	case 6:
		s.OldStatus, err = r.str()
	case 7:
		s.NewStatus, err = r.str()
	case 8:
		s.UpdatedBy, err = r.str()
	case 9:
		s.UpdatedAt, err = r.str()
	case 10:
		s.RejectionReason, err = r.str()
	default:
		return false, nil
	}
	return true, err
}

func (e *LoanStatusUpdate) appendFields(enc *encoder) {
	enc.int64(4, e.ApplicationID)
	e.StatusChange.appendFields(enc)
}

func (e *LoanStatusUpdate) readField(num fieldNum, r *fieldReader) (bool, error) {
	if num == 4 {
		var err error
		e.ApplicationID, err = r.int64()
		return true, err
	}
	return e.StatusChange.readField(num, r)
}

func (e *DocumentStatusUpdate) appendFields(enc *encoder) {
	enc.int64(4, e.DocumentID)
	e.StatusChange.appendFields(enc)
}

func (e *DocumentStatusUpdate) readField(num fieldNum, r *fieldReader) (bool, error) {
	if num == 4 {
		var err error
		e.DocumentID, err = r.int64()
		return true, err
	}
	return e.StatusChange.readField(num, r)
}
