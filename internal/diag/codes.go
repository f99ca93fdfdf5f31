package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Манифест вызовов
	ManInfo         Code = 1000
	ManBadDocument  Code = 1001
	ManMissingName  Code = 1002
	ManBadKind      Code = 1003
	ManBadStage     Code = 1004
	ManBadLiteral   Code = 1005
	ManBadPipeline  Code = 1006
	ManEmptyCallSet Code = 1007

	// Разрешение перегрузок
	SemaInfo              Code = 3000
	SemaNoOverload        Code = 3001
	SemaAmbiguousOverload Code = 3002
	SemaUnknownIntrinsic  Code = 3003
	SemaBadType           Code = 3004
	SemaConstEval         Code = 3005
	SemaDeprecated        Code = 3006
	SemaPipelineStage     Code = 3007
	SemaUnusedResult      Code = 3008
	SemaDialectHint       Code = 3009
	SemaUnexpectedResult  Code = 3010

	// Ввод-вывод
	IOLoadFileError Code = 4001

	// Конфигурация
	PrjInfo      Code = 5000
	PrjBadConfig Code = 5001
	PrjBadTable  Code = 5002
)

var (
	codeDescription = map[Code]string{
		UnknownCode:           "Unknown error",
		ManInfo:               "Manifest information",
		ManBadDocument:        "Malformed call manifest",
		ManMissingName:        "Call without a name",
		ManBadKind:            "Unknown call kind",
		ManBadStage:           "Unknown evaluation stage",
		ManBadLiteral:         "Malformed literal argument",
		ManBadPipeline:        "Unknown pipeline stage",
		ManEmptyCallSet:       "Manifest has no calls",
		SemaInfo:              "Resolution information",
		SemaNoOverload:        "No matching overload",
		SemaAmbiguousOverload: "Ambiguous overload",
		SemaUnknownIntrinsic:  "Unknown builtin, operator or constructor",
		SemaBadType:           "Malformed type",
		SemaConstEval:         "Constant evaluation failed",
		SemaDeprecated:        "Deprecated builtin",
		SemaPipelineStage:     "Builtin unavailable in pipeline stage",
		SemaUnusedResult:      "Result of must-use builtin discarded",
		SemaDialectHint:       "Builtin belongs to another dialect",
		SemaUnexpectedResult:  "Resolution differs from expectation",
		IOLoadFileError:       "I/O load file error",
		PrjInfo:               "Configuration information",
		PrjBadConfig:          "Malformed configuration file",
		PrjBadTable:           "Malformed intrinsic table",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("MAN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
