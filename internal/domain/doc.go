// Package domain prepares referral ("indicações") spreadsheet data for the
// heat-map dashboard. Everything here is pure: functions take immutable
// tables or rows and return new values.
//
// # Data Sources
//
// Two files feed the dashboard:
//
//	measurements  spreadsheet, one row per referral record
//	              columns: Cidade, Idade, QUANTIDADE DE INDICACOES
//	coordinates   delimited text, one row per known city
//	              columns: Cidade, Lat, Lon
//
// Header spelling varies between exports. Headers are trimmed and
// upper-cased, then renamed to canonical names:
//
//	CIDADE                    → Cidade
//	IDADE                     → Idade
//	QUANTIDADE DE INDICACOES  → Quantidade
//	QUANTIDADE_DE_INDICACOES  → Quantidade
//	LAT, LON                  → lat, lon
//
// Other columns are carried along as passthrough extras.
//
// # Missing Values
//
// Blank cells and the markers NA, N/A, NaN, NULL are missing. A missing or
// non-numeric age puts the row in the "Sem informação" bracket; it is never
// dropped. A missing quantity contributes zero. Quantity sign is not checked,
// so negative corrections in the source are summed as they are.
//
// # Age Brackets
//
// Upper bounds are inclusive:
//
//	Até 18 | 19 a 30 | 31 a 50 | 51 a 60 | 61 a 80 | Acima de 80
//
// # Geographic Join
//
// Aggregated cities are left-joined onto coordinates by name after trimming
// and upper-casing. Accents and typos are not reconciled: "São Paulo" and
// "Sao Paulo" are different cities. Unmatched cities stay in the tabular
// output, are excluded from the heat map, and are listed in
// [JoinResult.Unmatched].
package domain
