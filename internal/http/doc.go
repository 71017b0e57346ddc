// Package http provides HTTP handlers and middleware for the habit tracker API.
//
// Every API route is served below /api:
//   - POST /auth/signup, POST /auth/login: issue a session. Body:
//     {"name","email","password"} or {"email","password"}. Response:
//     {"token","expires_at","user"} with the token also surfaced via the
//     `X-Session-Token` header and a `session_token` cookie.
//   - POST /auth/logout: revokes the presented token and clears the cookie.
//   - GET /habits, POST /habits, GET /habits/{id}, PUT /habits/{id},
//     DELETE /habits/{id}: habit management exchanging `habitDTO`. Listing
//     attaches the current streak record of every habit.
//   - GET /habits/{id}/analytics: weekly and monthly completion rates, the
//     daily series and the streak record, repaired from the completion log
//     when it is stale.
//   - POST /completion/complete: records today's completion of {"habitId"}
//     and returns the completion with the updated streak. A second completion
//     on the same day is answered with 409.
//   - GET /completion/habit/{id}?from=YYYY-MM-DD&to=YYYY-MM-DD: the
//     completion log of one habit in timestamp order.
//   - GET /dashboard/stats, GET /dashboard/analytics: the user wide summary.
//
// GET /health sits outside the prefix and pings the database.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
