package wire

import "fmt"

// BackendMessageKind enumerates every backend-to-frontend message kind
// named in spec.md §4.4.
type BackendMessageKind int

const (
	KindAuthentication BackendMessageKind = iota
	KindBackendKeyData
	KindBindComplete
	KindCloseComplete
	KindCommandComplete
	KindCopyData
	KindCopyDone
	KindCopyInResponse
	KindCopyOutResponse
	KindCopyBothResponse
	KindDataRow
	KindEmptyQuery
	KindErrorResponse
	KindFunctionCallResponse
	KindNegotiateProtocolVersion
	KindNoData
	KindNoticeResponse
	KindNotificationResponse
	KindParameterDescription
	KindParameterStatus
	KindParseComplete
	KindPortalSuspended
	KindReadyForQuery
	KindRowDescription
)

// Byte returns the wire kind byte for k.
func (k BackendMessageKind) Byte() byte {
	switch k {
	case KindAuthentication:
		return 'R'
	case KindBackendKeyData:
		return 'K'
	case KindBindComplete:
		return '2'
	case KindCloseComplete:
		return '3'
	case KindCommandComplete:
		return 'C'
	case KindCopyData:
		return 'd'
	case KindCopyDone:
		return 'c'
	case KindCopyInResponse:
		return 'G'
	case KindCopyOutResponse:
		return 'H'
	case KindCopyBothResponse:
		return 'W'
	case KindDataRow:
		return 'D'
	case KindEmptyQuery:
		return 'I'
	case KindErrorResponse:
		return 'E'
	case KindFunctionCallResponse:
		return 'V'
	case KindNegotiateProtocolVersion:
		return 'v'
	case KindNoData:
		return 'n'
	case KindNoticeResponse:
		return 'N'
	case KindNotificationResponse:
		return 'A'
	case KindParameterDescription:
		return 't'
	case KindParameterStatus:
		return 'S'
	case KindParseComplete:
		return '1'
	case KindPortalSuspended:
		return 's'
	case KindReadyForQuery:
		return 'Z'
	case KindRowDescription:
		return 'T'
	default:
		panic(fmt.Sprintf("pgwire: unhandled BackendMessageKind %d", k))
	}
}

// BackendMessageKindFromByte maps a wire kind byte to its enum value.
// Code -> enum is partial: an unrecognized byte fails with
// ErrUnsupportedKind.
func BackendMessageKindFromByte(b byte) (BackendMessageKind, error) {
	switch b {
	case 'R':
		return KindAuthentication, nil
	case 'K':
		return KindBackendKeyData, nil
	case '2':
		return KindBindComplete, nil
	case '3':
		return KindCloseComplete, nil
	case 'C':
		return KindCommandComplete, nil
	case 'd':
		return KindCopyData, nil
	case 'c':
		return KindCopyDone, nil
	case 'G':
		return KindCopyInResponse, nil
	case 'H':
		return KindCopyOutResponse, nil
	case 'W':
		return KindCopyBothResponse, nil
	case 'D':
		return KindDataRow, nil
	case 'I':
		return KindEmptyQuery, nil
	case 'E':
		return KindErrorResponse, nil
	case 'V':
		return KindFunctionCallResponse, nil
	case 'v':
		return KindNegotiateProtocolVersion, nil
	case 'n':
		return KindNoData, nil
	case 'N':
		return KindNoticeResponse, nil
	case 'A':
		return KindNotificationResponse, nil
	case 't':
		return KindParameterDescription, nil
	case 'S':
		return KindParameterStatus, nil
	case '1':
		return KindParseComplete, nil
	case 's':
		return KindPortalSuspended, nil
	case 'Z':
		return KindReadyForQuery, nil
	case 'T':
		return KindRowDescription, nil
	default:
		return 0, fmt.Errorf("%w: backend kind byte %q", ErrUnsupportedKind, b)
	}
}

// FrontendMessageKind enumerates every frontend-to-backend message kind
// named in spec.md §4.4. The ambiguous 'p' kind byte (PasswordMessage,
// GSSResponse, SASLInitialResponse, SASLResponse) cannot be resolved by
// the codec alone — BackendMessageKindFromByte-style mapping returns
// KindAmbiguousP for it, and the connection state machine (which knows
// what Authentication variant it last sent/received) disambiguates.
type FrontendMessageKind int

const (
	KindBind FrontendMessageKind = iota
	KindClose
	KindCopyDataFrontend
	KindCopyDoneFrontend
	KindCopyFail
	KindDescribe
	KindExecute
	KindFlush
	KindFunctionCall
	KindParse
	KindQuery
	KindTerminate
	KindAmbiguousP
)

// Byte returns the wire kind byte for k. KindAmbiguousP always reports
// 'p'; which concrete message that represents depends on auth context.
func (k FrontendMessageKind) Byte() byte {
	switch k {
	case KindBind:
		return 'B'
	case KindClose:
		return 'C'
	case KindCopyDataFrontend:
		return 'd'
	case KindCopyDoneFrontend:
		return 'c'
	case KindCopyFail:
		return 'f'
	case KindDescribe:
		return 'D'
	case KindExecute:
		return 'E'
	case KindFlush:
		return 'H'
	case KindFunctionCall:
		return 'F'
	case KindParse:
		return 'P'
	case KindQuery:
		return 'Q'
	case KindTerminate:
		return 'X'
	case KindAmbiguousP:
		return 'p'
	default:
		panic(fmt.Sprintf("pgwire: unhandled FrontendMessageKind %d", k))
	}
}

// FrontendMessageKindFromByte maps a wire kind byte to its enum value.
func FrontendMessageKindFromByte(b byte) (FrontendMessageKind, error) {
	switch b {
	case 'B':
		return KindBind, nil
	case 'C':
		return KindClose, nil
	case 'd':
		return KindCopyDataFrontend, nil
	case 'c':
		return KindCopyDoneFrontend, nil
	case 'f':
		return KindCopyFail, nil
	case 'D':
		return KindDescribe, nil
	case 'E':
		return KindExecute, nil
	case 'H':
		return KindFlush, nil
	case 'F':
		return KindFunctionCall, nil
	case 'P':
		return KindParse, nil
	case 'Q':
		return KindQuery, nil
	case 'X':
		return KindTerminate, nil
	case 'p':
		return KindAmbiguousP, nil
	default:
		return 0, fmt.Errorf("%w: frontend kind byte %q", ErrUnsupportedKind, b)
	}
}

// AuthenticationMessageKind enumerates the sub-kind integer that follows
// the envelope on every Authentication ('R') frame.
type AuthenticationMessageKind int32

const (
	AuthKindOk                AuthenticationMessageKind = 0
	AuthKindKerberosV5        AuthenticationMessageKind = 2
	AuthKindCleartextPassword AuthenticationMessageKind = 3
	AuthKindMD5Password       AuthenticationMessageKind = 5
	AuthKindGSS               AuthenticationMessageKind = 7
	AuthKindGSSContinue       AuthenticationMessageKind = 8
	AuthKindSSPI              AuthenticationMessageKind = 9
	AuthKindSASL              AuthenticationMessageKind = 10
	AuthKindSASLContinue      AuthenticationMessageKind = 11
	AuthKindSASLFinal         AuthenticationMessageKind = 12
)

// AuthenticationMessageKindFromInt32 maps the sub-kind integer to its
// enum value.
func AuthenticationMessageKindFromInt32(code int32) (AuthenticationMessageKind, error) {
	switch AuthenticationMessageKind(code) {
	case AuthKindOk, AuthKindKerberosV5, AuthKindCleartextPassword, AuthKindMD5Password,
		AuthKindGSS, AuthKindGSSContinue, AuthKindSSPI, AuthKindSASL, AuthKindSASLContinue, AuthKindSASLFinal:
		return AuthenticationMessageKind(code), nil
	default:
		return 0, fmt.Errorf("%w: authentication sub-kind %d", ErrUnsupportedKind, code)
	}
}

// RequestMessageKind enumerates the startup-phase requests, which have
// no kind byte and are instead identified by a leading 32-bit request
// code (spec.md §3).
type RequestMessageKind int

const (
	RequestKindStartupMessage RequestMessageKind = iota
	RequestKindCancelRequest
	RequestKindSSLRequest
	RequestKindGSSENCRequest
)

const (
	// RequestCodeCancel, RequestCodeSSL, RequestCodeGSSENC are the fixed
	// request codes for their respective non-startup requests.
	// StartupMessage's code instead varies with ProtocolVersion
	// (196608 for 3.0) and is computed via ProtocolVersion.RequestCode.
	RequestCodeCancel  int32 = 80877102
	RequestCodeSSL     int32 = 80877103
	RequestCodeGSSENC  int32 = 80877104
	ProtocolVersion3_0       = 196608
)

// RequestMessageKindFromCode maps a request code to its enum value.
// Only ProtocolVersion3_0 maps to a StartupMessage; any code other than
// it and the three fixed non-startup codes fails with ErrUnsupportedKind.
func RequestMessageKindFromCode(code int32) (RequestMessageKind, error) {
	switch code {
	case RequestCodeCancel:
		return RequestKindCancelRequest, nil
	case RequestCodeSSL:
		return RequestKindSSLRequest, nil
	case RequestCodeGSSENC:
		return RequestKindGSSENCRequest, nil
	case ProtocolVersion3_0:
		return RequestKindStartupMessage, nil
	default:
		return 0, fmt.Errorf("%w: request code %d", ErrUnsupportedKind, code)
	}
}
