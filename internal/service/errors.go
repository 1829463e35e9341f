// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrUnknownAdmin — администратор не найден среди действующих.
	ErrUnknownAdmin = errors.New("администратор не найден")
	// ErrUnknownUser — пользователь не найден среди действующих.
	ErrUnknownUser = errors.New("пользователь не найден")
	// ErrUnknownNotice — объявление не найдено среди действующих.
	ErrUnknownNotice = errors.New("объявление не найдено")
	// ErrAlreadyJoinedAccount — логин уже занят действующей учётной записью.
	ErrAlreadyJoinedAccount = errors.New("учётная запись с таким логином уже существует")
	// ErrUnjoinedAccount — учётная запись с таким логином не зарегистрирована.
	ErrUnjoinedAccount = errors.New("учётная запись с таким логином не зарегистрирована")
	// ErrInvalidPassword — пароль не совпадает с сохранённым.
	ErrInvalidPassword = errors.New("неверный пароль")
	// ErrCannotUpdateYourself — оператор пытается изменить собственные привилегии.
	ErrCannotUpdateYourself = errors.New("нельзя изменять собственную учётную запись")
	// ErrCannotRemoveYourself — оператор пытается удалить сам себя.
	ErrCannotRemoveYourself = errors.New("нельзя удалить собственную учётную запись")
	// ErrCannotChangeOthersPassword — смена пароля чужой учётной записи.
	ErrCannotChangeOthersPassword = errors.New("нельзя сменить пароль чужой учётной записи")
	// ErrChangeToSamePassword — новый пароль совпадает с текущим.
	ErrChangeToSamePassword = errors.New("новый пароль совпадает с текущим")
	// ErrUnauthorized — refresh-токен не принят: истёк, отозван или вытеснен.
	ErrUnauthorized = errors.New("токен не принят")
)
