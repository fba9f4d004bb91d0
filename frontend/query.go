package frontend

import (
	"context"
	"fmt"

	"github.com/riftdata/pgwire/wire"
)

// QueryError is what SimpleQuery returns when the backend reports an
// ErrorResponse mid-query. Unlike a transport error, it does not mean
// the connection is unusable: the backend's next ReadyForQuery already
// restored Session to [ReadyForQuery] by the time SimpleQuery returns
// (spec.md §4.6's closing paragraph).
type QueryError struct {
	Code    string
	Message string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("pgwire: query error [%s]: %s", e.Code, e.Message)
}

// SimpleQuery performs one request/response cycle of the simple-query
// protocol: send Query, collect RowDescription/DataRow*/CommandComplete,
// and return once the server's ReadyForQuery restores the session. The
// reply sequence is read strictly in wire order; no pipelining is
// attempted (spec.md §5 "Ordering").
func (s *Session) SimpleQuery(ctx context.Context, sql string) (columns []wire.ColumnDescription, rows [][]wire.ColumnValue, tag string, err error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = s.nc.SetDeadline(dl)
		defer s.nc.SetDeadline(timeZero)
	}

	q := wire.Query{SQL: wire.CString(sql)}
	if werr := writeFrontend(s.nc, wire.KindQuery.Byte(), q); werr != nil {
		return nil, nil, "", fmt.Errorf("sending query: %w", werr)
	}

	var queryErr *QueryError
	for {
		frame, rerr := wire.ReadRawBackendFrame(s.nc)
		if rerr != nil {
			return nil, nil, "", fmt.Errorf("reading backend frame: %w", rerr)
		}
		kind, kerr := frame.GetMessageKind()
		if kerr != nil {
			return nil, nil, "", kerr
		}

		switch kind {
		case wire.KindRowDescription:
			rd, derr := wire.DecodeRowDescription(frame.Body)
			if derr != nil {
				return nil, nil, "", fmt.Errorf("decoding row description: %w", derr)
			}
			columns = rd.Columns.Items
		case wire.KindDataRow:
			dr, derr := wire.DecodeDataRow(frame.Body)
			if derr != nil {
				return nil, nil, "", fmt.Errorf("decoding data row: %w", derr)
			}
			rows = append(rows, dr.Columns.Items)
		case wire.KindCommandComplete:
			cc, derr := wire.DecodeCommandComplete(frame.Body)
			if derr != nil {
				return nil, nil, "", fmt.Errorf("decoding command complete: %w", derr)
			}
			tag = string(cc.Tag)
		case wire.KindEmptyQuery:
			// No tag, no columns: an empty-string query.
		case wire.KindErrorResponse:
			er, derr := wire.DecodeErrorResponse(frame.Body)
			if derr != nil {
				return nil, nil, "", fmt.Errorf("decoding error response: %w", derr)
			}
			queryErr = &QueryError{Code: errorCode(er), Message: errorMessage(er)}
		case wire.KindNoticeResponse:
			// Informational; simple-query callers don't see these.
		case wire.KindReadyForQuery:
			if queryErr != nil {
				return nil, nil, "", queryErr
			}
			return columns, rows, tag, nil
		default:
			return nil, nil, "", fmt.Errorf("%w: unexpected message kind %q mid-query", wire.ErrUnexpectedMessage, frame.Kind)
		}
	}
}

func errorCode(er wire.ErrorResponse) string {
	for _, f := range er.Fields.Items {
		if f.Code == 'C' {
			return string(f.Message)
		}
	}
	return ""
}
