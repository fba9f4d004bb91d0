package wire

// PgType describes one SQL type's wire identity: the object ID and
// typlen RowDescription reports for it, plus the format code a
// ColumnDescription/DataRow pair should use. Supplements spec.md §6's
// Bool/Int4/Text/Oid with the additional scalar types a complete client
// needs to round-trip real query results (Int8, Float8, Varchar).
type PgType struct {
	Name   string
	Oid    int32
	Len    int16
	Format int16
}

// Fixed well-known object IDs, matching the values postgres itself
// assigns these built-in types.
const (
	OidBool    int32 = 16
	OidInt8    int32 = 20
	OidInt4    int32 = 23
	OidText    int32 = 25
	OidFloat8  int32 = 701
	OidVarchar int32 = 1043
	OidOid     int32 = 26
)

var (
	Bool    = PgType{Name: "bool", Oid: OidBool, Len: 1, Format: 0}
	Int4    = PgType{Name: "int4", Oid: OidInt4, Len: 4, Format: 0}
	Int8    = PgType{Name: "int8", Oid: OidInt8, Len: 8, Format: 0}
	Float8  = PgType{Name: "float8", Oid: OidFloat8, Len: 8, Format: 0}
	Text    = PgType{Name: "text", Oid: OidText, Len: -1, Format: 1}
	Varchar = PgType{Name: "varchar", Oid: OidVarchar, Len: -1, Format: 1}
	Oid     = PgType{Name: "oid", Oid: OidOid, Len: 4, Format: 0}
)

// ColumnDescriptionFor builds a ColumnDescription for a column of type
// typ named name, using the untyped-table/attribute defaults a query
// result row (rather than a real catalog lookup) carries: RelationID and
// AttributeID are 0, DatatypeMod is -1.
func ColumnDescriptionFor(name string, typ PgType) ColumnDescription {
	return ColumnDescription{
		Name:        CString(name),
		RelationID:  0,
		AttributeID: 0,
		DatatypeID:  typ.Oid,
		DatatypeLen: typ.Len,
		DatatypeMod: -1,
		Format:      typ.Format,
	}
}
