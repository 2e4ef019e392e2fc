// Package salesapi — клиент внешних sales-сервисов: поиск компаний
// и генерация outreach-писем.
//
// Без API-ключей клиент работает в mock-режиме с детерминированным
// каталогом компаний — штатный режим для разработки и тестов.
package salesapi
