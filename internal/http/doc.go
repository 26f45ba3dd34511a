// Package http exposes the scheduling services as a JSON API on a chi router.
//
// Endpoints:
//   - GET /assignments?start=&end=&members=&roles=: assignments overlapping
//     [start, end), optionally restricted to members and roles. List
//     parameters are comma separated or repeated.
//   - POST /assignments/validate: body {"member_id","start","end","exclude_id"};
//     answers the conflicts the candidate interval would cause.
//   - POST /assignments, PUT /assignments/{id}, DELETE /assignments/{id}:
//     assignment lifecycle exchanging the `assignmentRequest` and
//     `assignmentDTO` payloads in assignment_handler.go and dto.go. A write that
//     would double-book a member answers 409 with the conflicting assignments.
//   - GET /members?roles=: the roster ordered by id, optionally restricted to
//     members holding one of the roles. GET /roles lists every role.
//   - GET /members/{id}/conflicts?start=&end=&exclude=: conflicts for a member.
//   - GET /members/{id}/grid?date=YYYY-MM-DD&granularity=30: the member's day
//     grid; granularity is in minutes and defaults to the service setting.
//   - GET /members/available?start=&end=&roles=: members free over the range.
//   - GET /activities/{id}/status?now=: derived activity status.
//     POST /activities/{id}/start, /complete and /refresh change or persist it.
//   - GET /audit/conflicts?start=&end=: overlapping stored assignment pairs.
//   - GET /metrics: Prometheus exposition.
//
// Timestamps are RFC 3339. Errors share the `errorResponse` shape defined in
// responder.go.
package http
