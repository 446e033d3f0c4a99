package main

// General API documentation for swaggo. The status server serves the
// rendered document at /swagger/doc.json.
//
// @title           trainloop status API
// @version         1.0
// @description     Read-only status, health and metrics of a running training loop.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
