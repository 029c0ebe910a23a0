// Package i18n registers the user-facing strings in English, Japanese and
// Russian. Keys are the English format strings.
package i18n

import (
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	CheckInOutOfRange  = "You are %.2f km away from the office. Check-in not registered."
	CheckOutOutOfRange = "You are %.2f km away from the office. Check-out not registered."
	CheckedIn          = "Welcome! You checked in at %s"
	CheckedOut         = "You checked out at %s"
	CheckInFirst       = "Check in first."
	CheckInFailed      = "An error occurred while checking in."
	CheckOutFailed     = "An error occurred while checking out."
	GeoUnsupported     = "Geolocation is not supported by this device."
	GeoUnavailable     = "Could not get your location. Check geolocation permissions and try again."

	QRRecordFailed = "Error creating record"
	QRNotDecoded   = "No QR code found in frame."

	InvalidCredentials  = "Invalid employee ID or password."
	CredentialsRequired = "Employee ID and password are required."
	ServiceUnavailable  = "Service unavailable. Please try again."
	SessionExpired      = "Session expired. Please sign in again."

	RequiredFields      = "Please fill in all required fields."
	DepartmentRequired  = "Please enter a department name."
	DepartmentExists    = "This department already exists."
	DepartmentUnchanged = "The department name is unchanged."
	PositionRequired    = "Please enter a position name and select a department."
	PositionUnchanged   = "You choosing same thing"
	PositionExists      = "This position already exists in the department."
	EmployeeExists      = "An employee with this ID already exists."
	EmployeeNotFound    = "Employee not found."
	Saved               = "Saved."
	Deleted             = "Deleted."
	ImportSummary       = "Imported %d employees, %d rows rejected."
	ImportFileRequired  = "An .xlsx or .xls file is required."
	GenericFailure      = "Something went wrong. Please try again."
)

var Supported = []language.Tag{language.English, language.Japanese, language.Russian}

var matcher = language.NewMatcher(Supported)

var translations = map[language.Tag]map[string]string{
	language.Japanese: {
		CheckInOutOfRange:   "オフィスから %.2f km 離れています。出勤は登録されませんでした。",
		CheckOutOutOfRange:  "オフィスから %.2f km 離れています。退勤は登録されませんでした。",
		CheckedIn:           "ようこそ！%s に出勤しました",
		CheckedOut:          "%s に退勤しました",
		CheckInFirst:        "先に出勤を記録してください。",
		CheckInFailed:       "出勤の記録中にエラーが発生しました。",
		CheckOutFailed:      "退勤の記録中にエラーが発生しました。",
		GeoUnsupported:      "この端末は位置情報に対応していません。",
		GeoUnavailable:      "位置情報を取得できません。権限を確認して再試行してください。",
		QRRecordFailed:      "記録の作成に失敗しました",
		InvalidCredentials:  "社員IDまたはパスワードが正しくありません。",
		CredentialsRequired: "社員IDとパスワードを入力してください。",
		SessionExpired:      "セッションの有効期限が切れました。再度ログインしてください。",
		RequiredFields:      "必須項目をすべて入力してください。",
		DepartmentRequired:  "部署名を入力してください。",
		DepartmentExists:    "この部署は既に存在します。",
		DepartmentUnchanged: "部署名が変更されていません。",
		PositionRequired:    "役職名を入力し、部署を選択してください。",
		PositionExists:      "この部署には同じ役職が既にあります。",
		EmployeeExists:      "この社員IDは既に登録されています。",
		EmployeeNotFound:    "社員が見つかりません。",
		Saved:               "保存しました。",
		Deleted:             "削除しました。",
		ImportSummary:       "%d 名を登録しました。%d 行は取り込めませんでした。",
	},
	language.Russian: {
		CheckInOutOfRange:   "Вы находитесь в %.2f км от офиса. Приход не зарегистрирован.",
		CheckOutOutOfRange:  "Вы находитесь в %.2f км от офиса. Уход не зарегистрирован.",
		CheckedIn:           "Добро пожаловать! Вы отметились в %s",
		CheckedOut:          "Вы отметились на выход в %s",
		CheckInFirst:        "Сначала отметьтесь на приход.",
		CheckInFailed:       "Произошла ошибка при отметке прихода.",
		CheckOutFailed:      "Произошла ошибка при отметке выхода.",
		GeoUnsupported:      "Геолокация не поддерживается этим устройством.",
		GeoUnavailable:      "Не удалось определить местоположение. Проверьте разрешения на геолокацию и попробуйте снова.",
		QRRecordFailed:      "Ошибка при создании записи",
		InvalidCredentials:  "Неверный ID сотрудника или пароль.",
		SessionExpired:      "Сессия истекла. Войдите снова.",
		RequiredFields:      "Заполните все обязательные поля.",
		DepartmentUnchanged: "Название отдела не изменилось.",
		EmployeeExists:      "Сотрудник с таким ID уже существует.",
		EmployeeNotFound:    "Сотрудник не найден.",
		Saved:               "Сохранено.",
		Deleted:             "Удалено.",
	},
}

func init() {
	for tag, msgs := range translations {
		for key, msg := range msgs {
			if err := message.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
}

// Match picks the best supported language for an Accept-Language header value.
func Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return language.English
	}
	return Supported[idx]
}

func NewPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// FromRequest honours a "lang" cookie before the Accept-Language header.
func FromRequest(r *http.Request) *message.Printer {
	if c, err := r.Cookie("lang"); err == nil && c.Value != "" {
		return message.NewPrinter(Match(c.Value))
	}
	return message.NewPrinter(Match(r.Header.Get("Accept-Language")))
}
