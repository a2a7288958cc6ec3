// Package http exposes the exam scheduling services over HTTP.
//
// Every request must carry the identity vouched for by the gateway in the
// `X-Actor-ID` and `X-Actor-Role` headers; RequireActor resolves them into an
// application.Principal before any handler runs.
//
// The router exposes the following endpoints:
//   - GET /exams, POST /exams: full listing for staff (filters: group, teacher,
//     discipline, status) and exam creation exchanging the `examDTO` payload
//     defined in exam_handler.go.
//   - POST /exams/assignments: creates an exam for a group that already has a
//     representative.
//   - GET /exams/confirmed, GET /exams/audit: the confirmed timetable and the
//     double booking audit.
//   - GET, PATCH, DELETE /exams/{id}: single exam access and typed partial updates.
//   - POST /exams/{id}/propose, /exams/{id}/review, /exams/{id}/confirm: the
//     workflow actions.
//   - GET /groups/{group}/exams, GET /teachers/{id}/exams: role scoped listings.
//   - GET /rooms, POST /rooms, GET /rooms/available?date=&hour=,
//     GET, PUT, DELETE /rooms/{id}: room catalog (room_handler.go).
//   - GET /periods, POST /periods, PATCH, DELETE /periods/{id},
//     GET /periods/{id}/dates: exam periods (period_handler.go).
//   - GET /disciplines, POST /disciplines, GET /disciplines/{id}.
//   - GET /users, POST /users, GET, PATCH, DELETE /users/{id}: the user directory.
//   - GET /healthz: store connectivity, served without identity headers.
//
// Errors are rendered as {"error_code","message","errors"}; the status follows
// the application error kind: 404 not found, 403 forbidden, 409 invalid state
// or conflict, 422 validation, 503 unavailable.
package http
