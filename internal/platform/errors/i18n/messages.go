package i18n

// Codes must match internal/platform/errors/codes.go and the diagnostic
// conditions of the table engine. They are duplicated as strings to avoid
// an import cycle.
const (
	CodeUnknown             = "UNKNOWN"
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeTableNotFound       = "TABLE_NOT_FOUND"
	CodeTableInvalid        = "TABLE_INVALID"
	CodeTableFormulaInvalid = "TABLE_FORMULA_INVALID"
	CodeTableRecursionLimit = "TABLE_RECURSION_LIMIT"
	CodeTableKindInvalid    = "TABLE_KIND_INVALID"
	CodePackNotFound        = "PACK_NOT_FOUND"
	CodePackReadOnly        = "PACK_READ_ONLY"
	CodeFilterInvalid       = "FILTER_INVALID"
	CodeRequestInvalid      = "REQUEST_INVALID"

	ConditionNoEligibleEntries      = "NO_ELIGIBLE_ENTRIES"
	ConditionNoUsableFormula        = "NO_USABLE_FORMULA"
	ConditionDistributionOutOfRange = "DISTRIBUTION_OUT_OF_RANGE"
	ConditionSamplingExhausted      = "SAMPLING_EXHAUSTED"
	ConditionUnresolvedReference    = "UNRESOLVED_REFERENCE"
)

var enUS = map[Code]string{
	CodeUnknown:             "An unexpected error occurred.",
	CodeNotFound:            "The requested record was not found.",
	CodeAlreadyExists:       "The record already exists.",
	CodeTableNotFound:       "Table {{.TableID}} was not found.",
	CodeTableInvalid:        "Table is invalid: {{.Reason}}",
	CodeTableFormulaInvalid: "Formula {{.Formula}} is not a valid dice formula.",
	CodeTableRecursionLimit: "Table {{.TableID}} nests other tables deeper than {{.MaxDepth}} levels.",
	CodeTableKindInvalid:    "Table kind {{.Kind}} is not supported.",
	CodePackNotFound:        "Compendium pack {{.Pack}} was not found.",
	CodePackReadOnly:        "Compendium pack {{.Pack}} is read-only.",
	CodeFilterInvalid:       "The filter expression is invalid.",
	CodeRequestInvalid:      "The request is invalid: {{.Reason}}",

	ConditionNoEligibleEntries:      "There are no available results which can be drawn from table {{.Table}}.",
	ConditionNoUsableFormula:        "Table {{.Table}} has no roll formula.",
	ConditionDistributionOutOfRange: "The roll formula {{.Formula}} of table {{.Table}} cannot reach any remaining result.",
	ConditionSamplingExhausted:      "No result was drawn from table {{.Table}} after {{.Attempts}} attempts.",
	ConditionUnresolvedReference:    "Referenced table {{.Reference}} could not be found.",
}

var ptBR = map[Code]string{
	CodeUnknown:             "Ocorreu um erro inesperado.",
	CodeNotFound:            "O registro solicitado não foi encontrado.",
	CodeAlreadyExists:       "O registro já existe.",
	CodeTableNotFound:       "A tabela {{.TableID}} não foi encontrada.",
	CodeTableInvalid:        "A tabela é inválida: {{.Reason}}",
	CodeTableFormulaInvalid: "A fórmula {{.Formula}} não é uma fórmula de dados válida.",
	CodeTableRecursionLimit: "A tabela {{.TableID}} aninha outras tabelas em mais de {{.MaxDepth}} níveis.",
	CodeTableKindInvalid:    "O tipo de tabela {{.Kind}} não é suportado.",
	CodePackNotFound:        "O compêndio {{.Pack}} não foi encontrado.",
	CodePackReadOnly:        "O compêndio {{.Pack}} é somente leitura.",
	CodeFilterInvalid:       "A expressão de filtro é inválida.",
	CodeRequestInvalid:      "A requisição é inválida: {{.Reason}}",

	ConditionNoEligibleEntries:      "Não há resultados disponíveis para sortear da tabela {{.Table}}.",
	ConditionNoUsableFormula:        "A tabela {{.Table}} não tem fórmula de rolagem.",
	ConditionDistributionOutOfRange: "A fórmula {{.Formula}} da tabela {{.Table}} não alcança nenhum resultado restante.",
	ConditionSamplingExhausted:      "Nenhum resultado foi sorteado da tabela {{.Table}} após {{.Attempts}} tentativas.",
	ConditionUnresolvedReference:    "A tabela referenciada {{.Reference}} não foi encontrada.",
}
