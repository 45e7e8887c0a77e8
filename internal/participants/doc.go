// Package participants содержит встроенных участников реестров и
// сборку каталога из статической конфигурации.
//
// Виды (поле kind в конфигурации):
//
//	role          Acceptor + Booker: требует роль пользователя
//	role_reviser  Reviser: бронирование и пересмотр по роли
//	min_length    PasswordValidator: минимальная длина
//	not_username  PasswordValidator: пароль не совпадает с именем
//	char_classes  PasswordValidator: минимум классов символов
//	log           EventPublisher: пишет события в лог
//	amqp          EventPublisher: пересылает события в RabbitMQ
//	target_type   Rule: тип объекта из разрешённого списка
//	id_pattern    Rule: ID объекта соответствует регулярному выражению
package participants
