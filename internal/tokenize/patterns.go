package tokenize

import (
	"regexp"

	"github.com/ppiankov/evidentia/internal/model"
)

// Pattern families are declarative data, not control flow: tuning the
// vocabulary never requires touching the tokenizer logic.

// amountPattern matches money with an explicit currency marker.
var amountPattern = regexp.MustCompile(
	`(?i)\d[\d\s.,]{0,18}\s*(?:₸|тенге|тг|kzt|rub|₽|usd|usdt|eur|сом|доллар(?:ов|а)?)`)

// datePatterns cover the literal date formats accepted as date tokens.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{1,2}\.\d{1,2}\.\d{2,4}(?:\s*г\.?)?`),
	regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}`),
	regexp.MustCompile(`\d{4}-\d{1,2}-\d{1,2}`),
	regexp.MustCompile(`\d{1,2}-\d{1,2}-\d{2,4}`),
	regexp.MustCompile(`\d{1,2}\s+(?:января|февраля|марта|апреля|мая|июня|июля|августа|сентября|октября|ноября|декабря)\s+\d{4}`),
	regexp.MustCompile(`\d{1,2}\s+(?:қаңтар|ақпан|наурыз|сәуір|мамыр|маусым|шілде|тамыз|қыркүйек|қазан|қараша|желтоқсан)\s+\d{4}`),
}

var phonePattern = regexp.MustCompile(
	`(?:\+?7|8)[-\s]?\d{3}[-\s]?\d{3}[-\s]?\d{2}[-\s]?\d{2}`)

var ibanPattern = regexp.MustCompile(`(?i)KZ\d{18}`)

// cardPattern is deliberately loose; matches are re-checked for digit count.
var cardPattern = regexp.MustCompile(`(?:\d[ -]?){12,20}`)

var cryptoAddrPattern = regexp.MustCompile(
	`(?:0x[a-fA-F0-9]{40}|[13][a-km-zA-HJ-NP-Z1-9]{25,34})`)

var articleRefPattern = regexp.MustCompile(
	`(?i)ст\.?\s*\d{1,3}(?:-\d+)?(?:\s*(?:ук|упк|гк)\s*рк)?`)

// personPattern catches capitalized name sequences; candidates still have to
// pass the stop-list.
var personPattern = regexp.MustCompile(
	`([А-ЯЁ][а-яё]+(?:-[А-ЯЁ][а-яё]+)?)\s+([А-ЯЁ][а-яё]+)(?:\s+([А-ЯЁ][а-яё]+))?`)

// personInitialsPattern catches "Иванов А.Р." style references.
var personInitialsPattern = regexp.MustCompile(
	`([А-ЯЁ][а-яё]+)\s+([А-ЯЁ]\.[А-ЯЁ]\.)`)

// personActorPattern catches a bare surname as the subject of an action
// verb ("Иванов получил ..."), which the two-word pattern cannot see.
var personActorPattern = regexp.MustCompile(
	`([А-ЯЁ][а-яё]{2,})\s+(?:получил|получила|перевел|перевёл|перевела|снял|сняла|вывел|вывела|похитил|похитила|пополнил|пополнила|отправил|отправила|сообщил|сообщила|пояснил|пояснила)`)

// namedEntityPattern captures a quoted name after a lexical trigger; the
// trigger decides the token type.
var namedEntityPattern = regexp.MustCompile(
	`(?i)(тоо|ооо|ао|компани[а-яё]*|фонд[а-яё]*|проект[а-яё]*|приложени[а-яё]*|платформ[а-яё]*|сайт[а-яё]*|групп[а-яё]*)\s*[«"]([^»"]{2,60})[»"]`)

var addressPattern = regexp.MustCompile(
	`(?:г\.|ул\.|пр\.|мкр\.)\s*[А-ЯЁA-Z][а-яёА-ЯЁa-zA-Z0-9\s-]{2,40}`)

// personStopwords rejects country names, status phrases and grammatical
// noise that superficially resembles a surname. Checked per name component.
var personStopwords = map[string]bool{
	// function words and document noise
	"после": true, "примерно": true, "кроме": true, "также": true,
	"когда": true, "однако": true, "далее": true, "затем": true,
	"заявление": true, "программа": true, "данная": true, "данное": true,
	"документ": true, "платформа": true, "сотрудник": true,
	"счет": true, "аккаунт": true, "дата": true, "вывод": true,
	"снятие": true, "вклад": true, "администратор": true, "группа": true,
	"перевод": true, "проверка": true, "заявка": true, "заявки": true,
	"подтверждение": true, "постановление": true, "протокол": true,
	// status words
	"потерпевший": true, "потерпевшая": true, "подозреваемый": true,
	"обвиняемый": true, "свидетель": true, "следователь": true,
	// countries and places commonly capitalized mid-sentence
	"казахстан": true, "россия": true, "китай": true, "турция": true,
	"узбекистан": true, "кыргызстан": true, "астана": true, "алматы": true,
}

// keywordFamilies lists every keyword-flag family with its vocabulary, in a
// fixed scan order so token output is reproducible. Matching is substring
// over the lowercased sentence, so stems cover inflections.
var keywordFamilies = []struct {
	Type  model.TokenType
	Words []string
}{
	{model.TokenFraudFlag, []string{
		"обман", "обманным путем", "мошеннич", "ввел в заблуждение",
		"ввела в заблуждение", "никто не сможет вывести",
		"незаконно завладел", "похитил", "похитила", "обогащение",
		"финансовая пирамида", "пирамид",
	}},
	{model.TokenInvestFlag, []string{
		"инвестиц", "проценты", "дивиденды", "доход", "вклад",
		"депозит", "прибыль", "умножение", "ежедневный доход",
	}},
	{model.TokenEconomicFlag, []string{
		"получил", "перевел", "перевёл", "снял", "пополнил", "отправил",
		"зачислил", "вывел", "оплатил", "приобрел",
	}},
	{model.TokenAdminFlag, []string{
		"администратор", "модератор", "создавал группы",
		"удалял сообщения", "рекламировал", "координировал",
	}},
	{model.TokenSchemeFlag, []string{
		"схема", "организованная группа", "привлечение вкладчиков",
		"вовлечение", "создание приложения", "фальшивые акции",
		"ввод в заблуждение", "механизм", "принцип действия",
	}},
	{model.TokenCryptoFlag, []string{
		"usdt", "ether", "bitcoin", "eth", "btc", "binance", "okx",
		"bybit", "кошелек", "кошелёк", "wallet", "crypto",
	}},
	{model.TokenProcessualFlag, []string{
		"разъяснены права", "может быть обжаловано", "под роспись",
		"предупрежден об ответственности", "предупреждена об ответственности",
		"язык судопроизводства",
	}},
}

// channelKeywords name payment rails and exchanges seen in transfers.
var channelKeywords = []string{
	"kaspi", "halyk", "qiwi", "sber", "forte", "visa",
	"mastercard", "iban", "swift", "okx", "binance", "bybit",
}

// roleKeywords maps lexical role markers to canonical role labels.
var roleKeywords = []struct {
	Stem  string
	Label string
}{
	{"потерпевш", "victim"},
	{"заявител", "applicant"},
	{"подозреваем", "suspect"},
	{"обвиняем", "suspect"},
	{"организатор", "organizer"},
	{"свидетел", "witness"},
}

// namedEntityTypes maps a trigger stem to the entity token type it produces.
var namedEntityTypes = []struct {
	Stem string
	Type model.TokenType
}{
	{"тоо", model.TokenOrganization},
	{"ооо", model.TokenOrganization},
	{"ао", model.TokenOrganization},
	{"компани", model.TokenOrganization},
	{"фонд", model.TokenOrganization},
	{"групп", model.TokenOrganization},
	{"проект", model.TokenProjectName},
	{"приложени", model.TokenProjectName},
	{"платформ", model.TokenPlatformName},
	{"сайт", model.TokenPlatformName},
}

// questionPrefixes mark interviewer questions in interrogation transcripts.
var questionPrefixes = []string{
	"вопрос:", "вопрос :", "в:", "скажите,", "поясните,", "уточните,",
}

// subjectivePrefixes mark first-person commentary without verifiable content.
var subjectivePrefixes = []string{
	"я считаю", "я думаю", "я полагаю", "я понял, что", "я поняла, что",
	"мне казалось", "мне кажется", "я предполагал", "я предполагала",
	"я верил", "я верила", "я надеялся", "я надеялась",
}

// suspectVerbPhrases are first-person economic actions by the acting party.
var suspectVerbPhrases = []string{
	"я получил", "я получила", "я снял", "я сняла",
	"я перевел", "я перевела", "я перевёл",
	"я вывел", "я вывела", "я похитил", "я похитила",
}

// suspectContextMarkers flag the acting party in the sentence or the
// sentence immediately before it.
var suspectContextMarkers = []string{
	"подозреваем", "обвиняем",
}

// confidenceWeights is the additive confidence rubric per token type.
var confidenceWeights = map[model.TokenType]float64{
	model.TokenAmount:        0.50,
	model.TokenDate:          0.32,
	model.TokenEconomicFlag:  0.40,
	model.TokenFraudFlag:     0.45,
	model.TokenInvestFlag:    0.38,
	model.TokenCryptoFlag:    0.42,
	model.TokenCryptoAddress: 0.45,
	model.TokenAccount:       0.35,
	model.TokenChannel:       0.30,
	model.TokenAdminFlag:     0.28,
	model.TokenSchemeFlag:    0.40,
	model.TokenRoleLabel:     0.15,
	model.TokenPerson:        0.12,
	model.TokenOrganization:  0.18,
	model.TokenProjectName:   0.20,
	model.TokenPlatformName:  0.20,
	model.TokenPhone:         0.15,
	model.TokenAddress:       0.10,
	model.TokenArticleRef:    0.12,
}

const defaultConfidenceWeight = 0.08

// evidentiaryTypes are token types that make a sentence count as evidence.
// A question or procedural sentence carrying any of these is never dropped.
var evidentiaryTypes = map[model.TokenType]bool{
	model.TokenAmount:        true,
	model.TokenDate:          true,
	model.TokenPerson:        true,
	model.TokenAccount:       true,
	model.TokenCryptoAddress: true,
	model.TokenOrganization:  true,
	model.TokenProjectName:   true,
	model.TokenPlatformName:  true,
	model.TokenChannel:       true,
	model.TokenPhone:         true,
	model.TokenArticleRef:    true,
	model.TokenFraudFlag:     true,
	model.TokenInvestFlag:    true,
	model.TokenEconomicFlag:  true,
	model.TokenAdminFlag:     true,
	model.TokenSchemeFlag:    true,
	model.TokenCryptoFlag:    true,
}

// verifiableReferentTypes keep a first-person subjective sentence alive.
var verifiableReferentTypes = []model.TokenType{
	model.TokenAmount, model.TokenOrganization, model.TokenProjectName,
	model.TokenPlatformName, model.TokenSchemeFlag, model.TokenCryptoFlag,
	model.TokenCryptoAddress, model.TokenChannel, model.TokenAccount,
}
