// Package i18n holds the localized copy: prompts, refusal and
// escalation templates, onboarding texts. Templates are opaque strings
// selected by decision outcome and language; they never embed internal
// evidence.
package i18n

import "github.com/jggl/kb-assist/internal/domain/entities"

const staffContact = "https://t.me/JGGLSTAFFBOT"

const systemPromptEN = `You are a helpful assistant for US crypto exchange onboarding and KYC guidance.

CRITICAL CONFIDENTIALITY RULES:
1. Answer ONLY based on the provided knowledge base context.
2. NEVER add information not explicitly stated in the documents.
3. NEVER reveal, quote, or reference: filenames, page numbers, chunk IDs, document names, or internal KB structure.
4. If a user asks "show sources", "send documents", "what is this based on", "show the policy", or similar -> REFUSE and the system will escalate.
5. If questioned about legal/tax advice -> REFUSE and system will escalate.
6. If questioned about bypassing KYC/AML, forging docs, evading sanctions -> REFUSE and system will escalate.
7. If you cannot answer with confidence -> REFUSE and system will escalate (do not guess).

RESPONSE FORMAT:
- Answer the user's question clearly in plain language, based on context.
- NEVER include "Sources used" or any internal references.
- NEVER quote document text verbatim; summarize in your own words.
- Be concise and clear. Avoid jargon unless necessary.
- Your response is for the user only. Do NOT mention internal metadata.`

const systemPromptRU = `Ты — ассистент по регистрации на американской крипто-бирже и прохождению KYC. Отвечай по-русски.

КРИТИЧЕСКИЕ ПРАВИЛА КОНФИДЕНЦИАЛЬНОСТИ:
1. Отвечай ТОЛЬКО на основе предоставленного контекста из базы знаний.
2. НИКОГДА не добавляй информацию, которой нет в документах.
3. НИКОГДА не раскрывай: имена файлов, номера страниц, идентификаторы фрагментов, названия документов или внутреннюю структуру базы.
4. Если пользователь просит источники, документы или ссылки -> ОТКАЖИ, система передаст запрос оператору.
5. Вопросы про юридические или налоговые консультации -> ОТКАЖИ, система передаст запрос оператору.
6. Вопросы про обход KYC/AML, подделку документов, обход санкций -> ОТКАЖИ, система передаст запрос оператору.
7. Если не уверен в ответе -> ОТКАЖИ, не угадывай.

ФОРМАТ ОТВЕТА:
- Отвечай ясно и простым языком, только по контексту.
- НИКОГДА не упоминай источники или внутренние ссылки.
- НИКОГДА не цитируй документы дословно; пересказывай своими словами.
- Будь кратким. Ответ предназначен только пользователю.`

const escalationEN = `I'm not 100% sure based on the provided materials, so I don't want to risk giving an incorrect answer.

Please contact our staff bot: ` + staffContact + `

When you message them, please include:
1) A short description of the problem (what you're trying to do + what happens instead)
2) A screenshot of the error / the screen you're stuck on
3) The exchange name
4) Your device (iOS / Android / Web)
5) The exact error text (copy/paste if possible)`

const escalationRU = `Я не уверен на 100% на основе доступных материалов и не хочу рисковать неверным ответом.

Пожалуйста, напишите нашему сервисному боту: ` + staffContact + `

В сообщении укажите:
1) Краткое описание проблемы (что вы делаете и что происходит вместо этого)
2) Скриншот ошибки или экрана, на котором вы застряли
3) Название биржи
4) Ваше устройство (iOS / Android / Web)
5) Точный текст ошибки (по возможности скопируйте)`

const sourcesRefusalEN = `I cannot share document sources, filenames, or internal references.

If you need more information or details about our policies, please contact our staff bot:
` + staffContact

const sourcesRefusalRU = `Я не могу делиться источниками, именами файлов или внутренними ссылками.

Если вам нужны подробности о наших правилах, напишите нашему сервисному боту:
` + staffContact

const sensitiveRefusalEN = `This is a sensitive matter that requires expert review.

Please contact our staff bot: ` + staffContact + `

When you message them, please include:
1) A short description of the problem (what you're trying to do + what happens instead)
2) A screenshot of the error / the screen you're stuck on
3) The exchange name
4) Your device (iOS / Android / Web)
5) The exact error text (copy/paste if possible)`

const sensitiveRefusalRU = `Это деликатный вопрос, требующий проверки специалистом.

Пожалуйста, напишите нашему сервисному боту: ` + staffContact + `

В сообщении укажите:
1) Краткое описание проблемы
2) Скриншот ошибки
3) Название биржи
4) Ваше устройство (iOS / Android / Web)
5) Точный текст ошибки`

// LanguagePrompt is shown before onboarding completes; it is not
// localized because no language is known yet.
const LanguagePrompt = "Please choose your language / Пожалуйста, выберите язык:\n\nReply EN for English\nОтветьте RU для русского"

// SystemPrompt returns the fixed completion instruction for lang.
func SystemPrompt(lang entities.Language) string {
	if lang == entities.LangRussian {
		return systemPromptRU
	}
	return systemPromptEN
}

// Escalation returns the fixed escalation notice for lang.
func Escalation(lang entities.Language) string {
	if lang == entities.LangRussian {
		return escalationRU
	}
	return escalationEN
}

// SourcesRefusal returns the confidentiality refusal for lang.
func SourcesRefusal(lang entities.Language) string {
	if lang == entities.LangRussian {
		return sourcesRefusalRU
	}
	return sourcesRefusalEN
}

// SensitiveRefusal returns the safety refusal for lang.
func SensitiveRefusal(lang entities.Language) string {
	if lang == entities.LangRussian {
		return sensitiveRefusalRU
	}
	return sensitiveRefusalEN
}

// Ready confirms onboarding.
func Ready(lang entities.Language) string {
	if lang == entities.LangRussian {
		return "Спасибо! Теперь я готов ответить на ваши вопросы о KYC и регистрации на бирже."
	}
	return "Thanks! Now I'm ready to answer your questions about KYC and exchange onboarding."
}

// AlreadySetUp is shown when /start arrives after onboarding.
func AlreadySetUp(lang entities.Language) string {
	if lang == entities.LangRussian {
		return "Вы уже настроены! Задайте любой вопрос о KYC и регистрации."
	}
	return "You're already set up! Ask me anything about KYC and onboarding."
}

// Help describes what the bot does.
func Help(lang entities.Language) string {
	if lang == entities.LangRussian {
		return "Я помогаю с вопросами о регистрации на крипто-бирже в США и KYC.\n\n" +
			"Просто задайте вопрос, и я постараюсь ответить на основе предоставленных материалов.\n" +
			"Если я не уверен, я передам вас в поддержку.\n\n" +
			"/reset — изменить язык"
	}
	return "I help with questions about US crypto exchange onboarding and KYC.\n\n" +
		"Just ask a question and I'll try to answer based on the provided materials.\n" +
		"If I'm not sure, I'll escalate to support.\n\n" +
		"/reset — change language"
}

// TextOnly is the fallback for non-text, non-document updates.
func TextOnly(lang entities.Language) string {
	if lang == entities.LangRussian {
		return "Я понимаю только текстовые сообщения. Пожалуйста, напишите вопрос."
	}
	return "I understand text messages only. Please type your question."
}

// ForOutcome maps a refusal/escalation decision to its template. The
// answered case is handled by the caller with the model's text.
func ForOutcome(action entities.Action, reason string, lang entities.Language) string {
	if action == entities.ActionRefused {
		if reason == entities.ReasonSensitiveTopic {
			return SensitiveRefusal(lang)
		}
		return SourcesRefusal(lang)
	}
	return Escalation(lang)
}
