// Package http implements the HTTP surface of csvplot: the single page, the
// stateless dataset and chart endpoints, health reports and the router that
// ties them to the middleware chain.
//
// Handlers stay thin. They parse and validate the request, call the chart
// service and format the response. Every failure goes through the shared
// apierrors.ErrorHandler and reaches the client as an RFC 7807 problem:
//
//	{
//	    "type": "/errors/chart/axis-type",
//	    "title": "Invalid Axis Column",
//	    "status": 422,
//	    "detail": "Y-axis column 'region' must be numeric.",
//	    "instance": "/api/charts"
//	}
//
// Routes:
//
//	GET  /                       page
//	POST /api/datasets/inspect   multipart file → dataset view
//	POST /api/datasets/export    multipart file, ?format=csv|xlsx → download
//	POST /api/charts             multipart file, x, y, kind, format → image
//	POST /api/logs               page error reports
//	GET  /api/health[/live|/ready], /api/version
//	GET  /metrics                Prometheus
//	GET  /ws                     interactive session
package http
