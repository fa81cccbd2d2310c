package repository

const orderColumns = "order_id, phone_number, employee_id, employee_name, status, COALESCE(sms_code, ''), dismissed, " +
	"order_date, order_time, service, operator, country, created_at, updated_at"

const InsertOrderSQL = "INSERT INTO orders (order_id, phone_number, employee_id, employee_name, status, " +
	"order_date, order_time, service, operator, country, created_at, updated_at) " +
	"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)"

const SelectOrderByIDSQL = "SELECT " + orderColumns + " FROM orders WHERE order_id = $1"

const SelectActiveOrdersSQL = "SELECT " + orderColumns + " FROM orders WHERE employee_id = $1 " +
	"AND (status = 'pending' OR (status = 'completed' AND NOT dismissed)) ORDER BY created_at DESC"

// The status guard in the WHERE clause makes every transition a compare-and-swap.
const CompleteOrderSQL = "UPDATE orders SET status = 'completed', sms_code = $2, updated_at = now() " +
	"WHERE order_id = $1 AND status = 'pending' RETURNING " + orderColumns

const CancelOrderSQL = "UPDATE orders SET status = 'cancelled', updated_at = now() " +
	"WHERE order_id = $1 AND status = 'pending' RETURNING " + orderColumns

const DismissOrderSQL = "UPDATE orders SET dismissed = TRUE, updated_at = now() " +
	"WHERE order_id = $1 AND status = 'completed' RETURNING " + orderColumns

const employeeColumns = "id, name, username, email, password, status, created_at"

const InsertEmployeeSQL = "INSERT INTO employees (id, name, username, email, password, status, created_at) " +
	"VALUES ($1, $2, $3, $4, $5, $6, $7)"

const SelectEmployeesSQL = "SELECT " + employeeColumns + " FROM employees ORDER BY created_at DESC"

const SelectEmployeeByIDSQL = "SELECT " + employeeColumns + " FROM employees WHERE id = $1"

const SelectEmployeeByUsernameSQL = "SELECT " + employeeColumns + " FROM employees WHERE username = $1"

const UpdateEmployeeStatusSQL = "UPDATE employees SET status = $2 WHERE id = $1 RETURNING " + employeeColumns

const DeleteEmployeeOrdersSQL = "DELETE FROM orders WHERE employee_id = $1"

const DeleteEmployeeSQL = "DELETE FROM employees WHERE id = $1"

const SelectAdminByUsernameSQL = "SELECT id, username, password, created_at FROM admins WHERE username = $1"

const CountAdminsSQL = "SELECT count(*) FROM admins"

const InsertAdminSQL = "INSERT INTO admins (username, password) VALUES ($1, $2) " +
	"ON CONFLICT (username) DO NOTHING RETURNING id, username, password, created_at"
